// Package storage mirrors run artifacts to an object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ObjectStore persists artifact bytes under a key and returns where they landed.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (string, error)
}

// Key builds the object key of a run artifact.
func Key(runID, fileName string) string {
	return path.Join(runID, filepath.Base(fileName))
}

// ContentType guesses the MIME type of an artifact from its extension.
func ContentType(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".json":
		return "application/json"
	case ".pdf":
		return "application/pdf"
	}
	if t := mime.TypeByExtension(filepath.Ext(fileName)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// MirrorFile uploads a local artifact to store under runID.
func MirrorFile(ctx context.Context, store ObjectStore, runID, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	location, err := store.Put(ctx, Key(runID, filePath), ContentType(filePath), f)
	if err != nil {
		return "", fmt.Errorf("mirror %s: %w", filepath.Base(filePath), err)
	}
	return location, nil
}

func normalizePrefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), "/")
}

func applyPrefix(prefix, key string) string {
	cleanPrefix := strings.Trim(prefix, "/")
	cleanKey := strings.TrimLeft(key, "/")
	if cleanPrefix == "" {
		return cleanKey
	}
	if cleanKey == "" {
		return cleanPrefix
	}
	return cleanPrefix + "/" + cleanKey
}

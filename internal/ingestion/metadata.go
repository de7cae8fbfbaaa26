package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
	"unicode/utf8"
)

// Metadata describes one extracted input. It is saved next to the Stage 1 artifact.
type Metadata struct {
	Source    string `json:"source"`
	Kind      Kind   `json:"kind"`
	MIMEType  string `json:"mime_type,omitempty"`
	Chars     int    `json:"chars"`
	Bytes     int    `json:"bytes,omitempty"`
	Hash      string `json:"hash"`
	Timestamp string `json:"timestamp"`
}

// NewMetadata summarizes c. The hash covers the text for text content and the raw
// bytes for multimodal content.
func NewMetadata(c Content) *Metadata {
	m := &Metadata{
		Source:    c.Source,
		Kind:      c.Kind,
		MIMEType:  c.MIMEType,
		Chars:     utf8.RuneCountInString(c.Text),
		Bytes:     len(c.Data),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if c.Kind == KindMultimodal {
		m.Hash = computeHash(c.Data)
	} else {
		m.Hash = computeHash([]byte(c.Text))
	}
	return m
}

func computeHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

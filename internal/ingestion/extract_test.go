package ingestion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestExtract_TextFile(t *testing.T) {
	path := writeFile(t, "resume.txt", []byte("Jane Lee | jane@example.com\n\n\n\nGo   engineer"))

	c, err := NewFileExtractor(nil).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, KindText, c.Kind)
	assert.Equal(t, "Jane Lee | jane@example.com\n\nGo engineer", c.Text)
	assert.Equal(t, path, c.Source)
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := NewFileExtractor(nil).Extract(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

func TestExtract_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileExtractor(nil).Extract(ctx, "resume.txt")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFromBytes(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		data     []byte
		wantKind Kind
		wantMIME string
	}{
		{"markdown", "jd.md", []byte("# Backend Engineer"), KindText, "text/plain"},
		{"empty text", "empty.txt", []byte("  \n "), KindUnsupported, ""},
		{"png", "scan.png", []byte{0x89, 'P', 'N', 'G'}, KindMultimodal, MIMEPNG},
		{"jpeg", "scan.JPEG", []byte{0xff, 0xd8}, KindMultimodal, MIMEJPEG},
		{"empty image", "scan.webp", nil, KindUnsupported, ""},
		{"unparseable pdf is scanned", "scan.pdf", []byte("%PDF-1.4 garbage"), KindMultimodal, MIMEPDF},
		{"empty pdf", "empty.pdf", nil, KindUnsupported, ""},
		{"broken docx", "cv.docx", []byte("not a zip"), KindUnsupported, ""},
		{"unknown extension", "archive.zip", []byte("PK"), KindUnsupported, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := FromBytes(tt.file, tt.data)
			assert.Equal(t, tt.wantKind, c.Kind)
			assert.Equal(t, tt.wantMIME, c.MIMEType)
			if tt.wantKind == KindMultimodal {
				assert.Equal(t, tt.data, c.Data)
			}
		})
	}
}

func TestFromBytes_HTML(t *testing.T) {
	html := `<html><body><nav>Menu</nav><div class="job-description"><h1>Backend Engineer</h1>
<p>Company: Acme Corp</p><form>Apply</form></div></body></html>`

	c := FromBytes("jd.html", []byte(html))
	require.Equal(t, KindText, c.Kind)
	assert.Contains(t, c.Text, "Backend Engineer")
	assert.Contains(t, c.Text, "Company: Acme Corp")
	assert.NotContains(t, c.Text, "Menu")
	assert.NotContains(t, c.Text, "Apply")
}

func TestCountNonSpace(t *testing.T) {
	assert.Equal(t, 6, countNonSpace(" a b\tc\n déf "))
	assert.Equal(t, 0, countNonSpace(" \n\t"))
}

func TestExtract_URL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/jobs/1":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body><nav>Nav</nav><main><h1>Backend Engineer</h1><p>Company: Acme Corp</p></main></body></html>`))
		case "/scan":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	ex := NewFileExtractor(nil)

	c, err := ex.Extract(context.Background(), server.URL+"/jobs/1")
	require.NoError(t, err)
	assert.Equal(t, KindText, c.Kind)
	assert.Equal(t, "Backend Engineer\nCompany: Acme Corp", c.Text)
	assert.Equal(t, server.URL+"/jobs/1", c.Source)

	c, err = ex.Extract(context.Background(), server.URL+"/scan")
	require.NoError(t, err)
	assert.Equal(t, KindMultimodal, c.Kind)
	assert.Equal(t, MIMEPNG, c.MIMEType)

	_, err = ex.Extract(context.Background(), server.URL+"/missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHTTPRequestFailed)
	assert.True(t, strings.Contains(err.Error(), "404"))
}

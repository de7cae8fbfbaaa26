package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = "w"
	}
	return strings.Join(w, " ")
}

func TestSplitWords(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		size       int
		wantChunks int
		lastWords  int
	}{
		{"empty", "", 500, 0, 0},
		{"whitespace only", " \n\t ", 500, 0, 0},
		{"short", "hello world", 500, 1, 2},
		{"exact", words(500), 500, 1, 500},
		{"one over", words(501), 500, 2, 1},
		{"default size", words(1200), 0, 3, 200},
		{"small size", words(7), 3, 3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := SplitWords("res_run1", "resume", "run1", tt.text, tt.size)
			require.Len(t, chunks, tt.wantChunks)
			if tt.wantChunks == 0 {
				return
			}
			last := chunks[len(chunks)-1]
			assert.Len(t, strings.Fields(last.Text), tt.lastWords)
		})
	}
}

func TestSplitWords_IDsAndMetadata(t *testing.T) {
	chunks := SplitWords(JobDescriptionDocID("20250101_120000"), "job_description", "20250101_120000", "a b c d e", 2)
	require.Len(t, chunks, 3)

	for i, c := range chunks {
		assert.Equal(t, ChunkID("jd_20250101_120000", i), c.ID)
		assert.Equal(t, "jd_20250101_120000", c.DocID)
		assert.Equal(t, "job_description", c.Metadata.DocType)
		assert.Equal(t, "20250101_120000", c.Metadata.CandidateID)
		assert.Equal(t, i, c.Metadata.ChunkIndex)
	}
	assert.Equal(t, "jd_20250101_120000_chunk_0", chunks[0].ID)
	assert.Equal(t, "a b", chunks[0].Text)
	assert.Equal(t, "e", chunks[2].Text)
}

func TestDocIDs(t *testing.T) {
	assert.Equal(t, "res_abc", ResumeDocID("abc"))
	assert.Equal(t, "jd_abc", JobDescriptionDocID("abc"))
}

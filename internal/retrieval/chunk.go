// Package retrieval keeps the extracted text of a run's documents in word chunks and
// returns the chunks most related to a query, partitioned by run id.
package retrieval

import (
	"fmt"
	"strings"
)

// ChunkWords is the number of words per chunk.
const ChunkWords = 500

// DefaultQueryLimit is the number of matches returned per query.
const DefaultQueryLimit = 3

// Metadata is stored with every chunk.
type Metadata struct {
	DocType     string `json:"doc_type"`
	CandidateID string `json:"candidate_id"`
	ChunkIndex  int    `json:"chunk_index"`
}

// Chunk is one slice of a document.
type Chunk struct {
	ID       string   `json:"id"`
	DocID    string   `json:"doc_id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// ResumeDocID is the document id used for a run's resume.
func ResumeDocID(runID string) string { return "res_" + runID }

// JobDescriptionDocID is the document id used for a run's job description.
func JobDescriptionDocID(runID string) string { return "jd_" + runID }

// ChunkID names chunk i of docID.
func ChunkID(docID string, i int) string {
	return fmt.Sprintf("%s_chunk_%d", docID, i)
}

// SplitWords splits text on whitespace into chunks of at most size words.
// A non-positive size uses ChunkWords. Empty text yields no chunks.
func SplitWords(docID, docType, candidateID, text string, size int) []Chunk {
	if size <= 0 {
		size = ChunkWords
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]Chunk, 0, (len(words)+size-1)/size)
	for i, start := 0, 0; start < len(words); i, start = i+1, start+size {
		end := min(start+size, len(words))
		chunks = append(chunks, Chunk{
			ID:    ChunkID(docID, i),
			DocID: docID,
			Text:  strings.Join(words[start:end], " "),
			Metadata: Metadata{
				DocType:     docType,
				CandidateID: candidateID,
				ChunkIndex:  i,
			},
		})
	}
	return chunks
}

package retrieval

import "context"

// Match is a chunk returned by a query with its similarity score; higher is closer.
type Match struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// Store holds chunks per run.
type Store interface {
	// Upsert adds or replaces chunks by id under runID.
	Upsert(ctx context.Context, runID string, chunks []Chunk) error
	// Query returns at most n chunks of runID ordered by decreasing score.
	Query(ctx context.Context, text, runID string, n int) ([]Match, error)
}

// Embedder turns texts into vectors, one per text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Texts returns the chunk texts of matches, in order.
func Texts(matches []Match) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Chunk.Text)
	}
	return out
}

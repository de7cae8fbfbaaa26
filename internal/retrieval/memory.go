package retrieval

import (
	"context"
	"log"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"
)

type entry struct {
	chunk  Chunk
	vector []float32
	terms  map[string]int
}

// MemoryStore keeps chunks in process memory. With an Embedder it ranks by cosine
// similarity; without one, or when embedding fails, it ranks by shared terms.
type MemoryStore struct {
	Embedder Embedder
	Verbose  bool

	mu   sync.RWMutex
	runs map[string]map[string]*entry
}

// NewMemoryStore returns an empty store. embedder may be nil.
func NewMemoryStore(embedder Embedder) *MemoryStore {
	return &MemoryStore{Embedder: embedder, runs: make(map[string]map[string]*entry)}
}

// Upsert implements Store.
func (s *MemoryStore) Upsert(ctx context.Context, runID string, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	vectors := s.embed(ctx, chunkTexts(chunks))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runs == nil {
		s.runs = make(map[string]map[string]*entry)
	}
	run := s.runs[runID]
	if run == nil {
		run = make(map[string]*entry)
		s.runs[runID] = run
	}
	for i, c := range chunks {
		e := &entry{chunk: c, terms: termCounts(c.Text)}
		if vectors != nil {
			e.vector = vectors[i]
		}
		run[c.ID] = e
	}
	return nil
}

// Query implements Store.
func (s *MemoryStore) Query(ctx context.Context, text, runID string, n int) ([]Match, error) {
	if n <= 0 {
		n = DefaultQueryLimit
	}

	var queryVec []float32
	if vecs := s.embed(ctx, []string{text}); vecs != nil {
		queryVec = vecs[0]
	}
	queryTerms := termCounts(text)

	s.mu.RLock()
	matches := make([]Match, 0, len(s.runs[runID]))
	for _, e := range s.runs[runID] {
		var score float64
		if queryVec != nil && e.vector != nil {
			score = Cosine(queryVec, e.vector)
		} else {
			score = overlap(queryTerms, e.terms)
		}
		matches = append(matches, Match{Chunk: e.chunk, Score: score})
	}
	s.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Chunk.ID < matches[j].Chunk.ID
	})
	if len(matches) > n {
		matches = matches[:n]
	}
	return matches, nil
}

// Len returns the number of chunks stored for runID.
func (s *MemoryStore) Len(runID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs[runID])
}

func (s *MemoryStore) embed(ctx context.Context, texts []string) [][]float32 {
	if s.Embedder == nil {
		return nil
	}
	vecs, err := s.Embedder.Embed(ctx, texts)
	if err != nil || len(vecs) != len(texts) {
		if s.Verbose {
			log.Printf("[RETRIEVAL] embedding unavailable, using term overlap: %v", err)
		}
		return nil
	}
	return vecs
}

// Cosine returns the cosine similarity of a and b, or 0 when either is empty or the
// lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func termCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(w) > 2 {
			counts[w]++
		}
	}
	return counts
}

func overlap(query, doc map[string]int) float64 {
	if len(query) == 0 || len(doc) == 0 {
		return 0
	}
	var shared int
	for term := range query {
		if doc[term] > 0 {
			shared++
		}
	}
	return float64(shared) / float64(len(query))
}

func chunkTexts(chunks []Chunk) []string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return texts
}

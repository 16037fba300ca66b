package model

// Snippet is a ranked text fragment returned from the vector index.
// It is read once per request and never mutated.
type Snippet struct {
	Content string
	Score   float64
}

// Chunk is one unit of knowledge text stored in the vector index.
type Chunk struct {
	ID      string
	Content string
}

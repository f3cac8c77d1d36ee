package schema

// Chunk is the data carrier through the RAG pipeline: one overlapping word
// window of a document together with its provenance and, once embedded, its
// vector. OwnerID is carried so every store write and query stays scoped to
// the owning user.
type Chunk struct {
	ID         string
	DocumentID string
	OwnerID    string
	Index      int
	Text       string
	Embedding  []float32
	Model      string
}

// Scored pairs a retrieved chunk with its cosine distance to the query.
// Lower distance means more similar.
type Scored struct {
	Chunk    Chunk
	Distance float64
}

// Turn is one prior message of the conversation history.
type Turn struct {
	Role string // "user" or "assistant"
	Text string
}

// GenerationRequest is the typed prompt payload produced by the Assembler
// and consumed by the Generator. Context chunks are verbatim document text in
// relevance order; History is the bounded window of prior turns, oldest
// first. Keeping this structured (instead of a pre-rendered string) means
// truncation and ordering rules are enforced in exactly one place.
type GenerationRequest struct {
	Context  []Chunk
	History  []Turn
	Question string
}

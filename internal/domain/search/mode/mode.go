package mode

// Mode is how an unfiltered text query is ranked.
type Mode string

// Search mode constants.
const (
	// Keyword ranks by BM25 over title, summary and keywords.
	Keyword Mode = "keyword"
	// Hybrid blends BM25 with vector similarity.
	Hybrid Mode = "hybrid"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Keyword || m == Hybrid
}

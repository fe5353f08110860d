package domain

import "strconv"

// Metadata keys carried by every chunk.
const (
	MetaSource = "source"
	MetaPage   = "page"
)

// Citation defaults used when a chunk lacks metadata.
const (
	UnknownSource = "Unknown"
	UnknownPage   = "N/A"
)

// Document is the extracted text of a single page of a knowledge-base file.
// Documents are transient: produced by a loader and consumed by a splitter.
type Document struct {
	// Source is the path the document was loaded from.
	Source string

	// Page is the zero-based page number within the source file.
	Page int

	// Content is the extracted text.
	Content string
}

// Metadata returns the metadata inherited by every chunk of this document.
func (d Document) Metadata() map[string]string {
	return map[string]string{
		MetaSource: d.Source,
		MetaPage:   strconv.Itoa(d.Page),
	}
}

// Chunk is a bounded-length slice of a document, the unit stored in the index.
type Chunk struct {
	// ID uniquely identifies this chunk.
	ID string

	// Content is the chunk text.
	Content string

	// Position is the chunk's order within its batch.
	Position int

	// Metadata holds source and page information inherited from the document.
	Metadata map[string]string
}

// Source returns the chunk's source file or UnknownSource.
func (c Chunk) Source() string {
	if v, ok := c.Metadata[MetaSource]; ok && v != "" {
		return v
	}
	return UnknownSource
}

// Page returns the chunk's page or UnknownPage.
func (c Chunk) Page() string {
	if v, ok := c.Metadata[MetaPage]; ok && v != "" {
		return v
	}
	return UnknownPage
}

// Citation returns the citation record for this chunk.
// Missing metadata falls back to defaults and never fails.
func (c Chunk) Citation() Citation {
	return Citation{Source: c.Source(), Page: c.Page()}
}

// ScoredChunk is a chunk returned by a similarity search.
type ScoredChunk struct {
	Chunk Chunk

	// Score is the cosine similarity between the query and the chunk.
	Score float64
}

// Package chunker provides a recursive character text splitter.
//
// Text is split on the first separator that occurs in it ("\n\n", then "\n",
// then " ", then between characters). Pieces that fit are merged back
// together up to the chunk size, carrying up to overlap characters from the
// end of one chunk into the start of the next. Pieces that are still too
// large are split again with the remaining separators.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Splitter = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1024

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 80

// DefaultSeparators are tried in order, coarsest first.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Processor splits documents into bounded-length chunks.
type Processor struct {
	chunkSize  int
	overlap    int
	separators []string
	newID      func() string
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithSeparators replaces the separator list. The last entry should be ""
// so that any text can be split.
func WithSeparators(seps ...string) Option {
	return func(p *Processor) {
		if len(seps) > 0 {
			p.separators = seps
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: DefaultSeparators,
		newID:      func() string { return uuid.New().String() },
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "recursive"
}

// Split chunks every document. Chunks inherit the document's metadata and
// are numbered in output order. Empty documents produce no chunks.
func (p *Processor) Split(docs []domain.Document) []domain.Chunk {
	var chunks []domain.Chunk
	position := 0

	for _, doc := range docs {
		for _, text := range p.SplitText(doc.Content) {
			chunks = append(chunks, domain.Chunk{
				ID:       p.newID(),
				Content:  text,
				Position: position,
				Metadata: doc.Metadata(),
			})
			position++
		}
	}

	return chunks
}

// SplitText splits a single string.
func (p *Processor) SplitText(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return p.split(text, p.separators)
}

func (p *Processor) split(text string, separators []string) []string {
	// Pick the first separator present in the text.
	separator := separators[len(separators)-1]
	var remaining []string
	for i, s := range separators {
		if s == "" {
			separator = ""
			break
		}
		if strings.Contains(text, s) {
			separator = s
			remaining = separators[i+1:]
			break
		}
	}

	var final, good []string
	for _, piece := range splitOn(text, separator) {
		if length(piece) < p.chunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, p.merge(good, separator)...)
			good = nil
		}
		if len(remaining) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, p.split(piece, remaining)...)
		}
	}
	if len(good) > 0 {
		final = append(final, p.merge(good, separator)...)
	}
	return final
}

// merge joins small pieces into chunks of at most chunkSize characters,
// keeping a tail of at most overlap characters between neighbours.
func (p *Processor) merge(pieces []string, separator string) []string {
	sepLen := length(separator)
	var (
		chunks  []string
		current []string
		total   int
	)

	joinCost := func() int {
		if len(current) > 0 {
			return sepLen
		}
		return 0
	}

	for _, piece := range pieces {
		n := length(piece)
		if total+n+joinCost() > p.chunkSize && len(current) > 0 {
			if chunk := strings.TrimSpace(strings.Join(current, separator)); chunk != "" {
				chunks = append(chunks, chunk)
			}
			// Drop pieces from the front until the tail fits the overlap
			// and the next piece fits beside it.
			for total > p.overlap || (total+n+joinCost() > p.chunkSize && total > 0) {
				drop := length(current[0])
				if len(current) > 1 {
					drop += sepLen
				}
				total -= drop
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
		if len(current) > 1 {
			total += sepLen
		}
	}

	if chunk := strings.TrimSpace(strings.Join(current, separator)); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func splitOn(text, separator string) []string {
	var parts []string
	if separator == "" {
		parts = make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			parts = append(parts, string(r))
		}
	} else {
		parts = strings.Split(text, separator)
	}

	out := parts[:0]
	for _, s := range parts {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}

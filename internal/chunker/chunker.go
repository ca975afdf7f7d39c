// Package chunker splits rendered course text into bounded, overlapping
// chunks for embedding. Lengths are counted in runes so Hangul text is
// measured per character.
package chunker

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is returned by New when the size/overlap pair cannot
// produce progress.
var ErrInvalidConfig = errors.New("invalid chunker config")

// DefaultSeparators are tried coarsest first. When none of them fits inside
// the window the chunk is cut at a character boundary.
var DefaultSeparators = []string{"\n\n", "\n", ".", "!", "?", ",", " "}

// Splitter cuts text into chunks of at most MaxSize runes where consecutive
// chunks share exactly Overlap runes.
type Splitter struct {
	maxSize    int
	overlap    int
	separators [][]rune
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithSeparators replaces the separator priority list. Empty strings are
// ignored.
func WithSeparators(seps ...string) Option {
	return func(s *Splitter) {
		s.separators = s.separators[:0]
		for _, sep := range seps {
			if sep != "" {
				s.separators = append(s.separators, []rune(sep))
			}
		}
	}
}

// New returns a Splitter. maxSize must be positive and overlap must lie in
// [0, maxSize).
func New(maxSize, overlap int, opts ...Option) (*Splitter, error) {
	if maxSize <= 0 || overlap < 0 || overlap >= maxSize {
		return nil, fmt.Errorf("%w: max size %d, overlap %d", ErrInvalidConfig, maxSize, overlap)
	}
	s := &Splitter{maxSize: maxSize, overlap: overlap}
	for _, sep := range DefaultSeparators {
		s.separators = append(s.separators, []rune(sep))
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// MaxSize returns the chunk size bound in runes.
func (s *Splitter) MaxSize() int { return s.maxSize }

// Overlap returns the number of runes shared by consecutive chunks.
func (s *Splitter) Overlap() int { return s.overlap }

// Split returns the chunks of text in order. Separators stay attached to the
// text before them, so dropping the first Overlap runes of every chunk after
// the first and concatenating yields text again. Empty or whitespace-only
// input yields no chunks.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	r := []rune(text)
	n := len(r)

	var chunks []string
	start := 0
	for {
		if n-start <= s.maxSize {
			chunks = append(chunks, string(r[start:]))
			return chunks
		}
		end := s.boundary(r, start)
		chunks = append(chunks, string(r[start:end]))
		start = end - s.overlap
	}
}

// boundary picks where the chunk beginning at start ends. The end must fall
// in (start+overlap, start+maxSize] so the next chunk starts after this one.
func (s *Splitter) boundary(r []rune, start int) int {
	lo, hi := start+s.overlap+1, start+s.maxSize
	for _, sep := range s.separators {
		if end := lastBoundary(r, sep, lo, hi); end > 0 {
			return end
		}
	}
	return hi
}

// lastBoundary returns the largest e in [lo, hi] such that r[e-len(sep):e]
// equals sep, or -1.
func lastBoundary(r, sep []rune, lo, hi int) int {
	ls := len(sep)
	for e := hi; e >= lo && e-ls >= 0; e-- {
		if matchAt(r, sep, e-ls) {
			return e
		}
	}
	return -1
}

func matchAt(r, sep []rune, pos int) bool {
	for i, c := range sep {
		if r[pos+i] != c {
			return false
		}
	}
	return true
}

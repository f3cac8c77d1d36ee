package chunker

import (
	"errors"
	"strings"
)

// ErrInvalidConfiguration is returned for window/overlap parameters that can
// never produce a valid chunk sequence. This is a programmer error, not a
// retryable condition.
var ErrInvalidConfiguration = errors.New("chunker: window and overlap must be positive and overlap smaller than window")

// Piece is one word window of the input text. Index is the zero-based
// position of the piece in the chunk sequence.
type Piece struct {
	Index int
	Text  string
}

// Chunk splits text into overlapping windows of windowWords whitespace
// tokens. Each window after the first starts windowWords-overlapWords tokens
// after the previous window's start, so the trailing overlapWords tokens of
// one window reappear at the head of the next. The final window keeps
// whatever tail tokens remain and may be shorter; it is never padded or
// dropped.
//
// When the whole text fits in a single window it is returned verbatim,
// untokenized, so short documents round-trip exactly.
//
// Chunk is pure and deterministic: identical input always yields an
// identical sequence, which is what makes reprocessing idempotent.
func Chunk(text string, windowWords, overlapWords int) ([]Piece, error) {
	if windowWords <= 0 || overlapWords <= 0 || overlapWords >= windowWords {
		return nil, ErrInvalidConfiguration
	}

	words := strings.Fields(text)
	if len(words) <= windowWords {
		return []Piece{{Index: 0, Text: text}}, nil
	}

	step := windowWords - overlapWords
	pieces := make([]Piece, 0, (len(words)+step-1)/step)

	for start := 0; start < len(words); start += step {
		end := start + windowWords
		if end > len(words) {
			end = len(words)
		}

		pieces = append(pieces, Piece{
			Index: len(pieces),
			Text:  strings.Join(words[start:end], " "),
		})

		if end == len(words) {
			break
		}
	}

	return pieces, nil
}

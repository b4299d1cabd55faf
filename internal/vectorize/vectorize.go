// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vectorize turns a list of text snippets into word n-gram count
// vectors over a vocabulary derived from that list alone. Vocabulary is
// rebuilt on every call; nothing is cached.
package vectorize

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/cord-answers/pkg/types"
)

const (
	minN = 2
	maxN = 3
)

// ErrEmptyVocabulary is returned when the document-frequency bounds leave
// no n-gram in the vocabulary.
var ErrEmptyVocabulary = errors.New("no n-grams remain after document-frequency filtering")

// tokenPattern matches runs of two or more word characters. Combining
// marks are not word characters and split a token.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Options controls vocabulary construction.
type Options struct {
	// MinDF and MaxDF bound the number of snippets an n-gram may occur in.
	MinDF types.DocFreq
	MaxDF types.DocFreq

	// KeepCase disables lower-casing before tokenization.
	KeepCase bool
}

// Permissive returns options that accept every n-gram occurring in at
// least one snippet. Vectorize never returns ErrEmptyVocabulary for them.
func Permissive(keepCase bool) Options {
	return Options{
		MinDF:    types.Fraction(0),
		MaxDF:    types.Fraction(1),
		KeepCase: keepCase,
	}
}

// Matrix is the result of vectorizing N snippets: N rows of len(Vocabulary)
// counts each. Vocabulary is sorted lexically.
type Matrix struct {
	Vocabulary []string
	Rows       [][]int
}

// Dim returns the vector dimensionality.
func (m Matrix) Dim() int { return len(m.Vocabulary) }

// Vectorize builds the filtered 2- and 3-gram vocabulary of snippets and
// returns one count vector per snippet, in input order. If the snippets
// contain no n-grams at all the vectors are zero-width and no error is
// returned; ErrEmptyVocabulary is reserved for a filter that discards
// every n-gram.
func Vectorize(snippets []string, opts Options) (Matrix, error) {
	n := len(snippets)
	counts := make([]map[string]int, n)
	df := make(map[string]int)

	for i, s := range snippets {
		c := make(map[string]int)
		for _, g := range NGrams(Tokenize(s, opts.KeepCase), minN, maxN) {
			c[g]++
		}
		for g := range c {
			df[g]++
		}
		counts[i] = c
	}

	if len(df) == 0 {
		return Matrix{Rows: make([][]int, n)}, nil
	}

	low := opts.MinDF.Resolve(n)
	high := opts.MaxDF.Resolve(n)
	if high < low {
		return Matrix{}, fmt.Errorf("%w: max_df resolves to %.2f snippets, below min_df %.2f", ErrEmptyVocabulary, high, low)
	}

	vocab := make([]string, 0, len(df))
	for g, d := range df {
		if float64(d) >= low && float64(d) <= high {
			vocab = append(vocab, g)
		}
	}
	if len(vocab) == 0 {
		return Matrix{}, fmt.Errorf("%w: %d candidate n-grams across %d snippets", ErrEmptyVocabulary, len(df), n)
	}
	sort.Strings(vocab)

	index := make(map[string]int, len(vocab))
	for i, g := range vocab {
		index[g] = i
	}

	rows := make([][]int, n)
	for i, c := range counts {
		row := make([]int, len(vocab))
		for g, k := range c {
			if j, ok := index[g]; ok {
				row[j] = k
			}
		}
		rows[i] = row
	}

	return Matrix{Vocabulary: vocab, Rows: rows}, nil
}

// Tokenize splits text into word tokens of at least two characters,
// lower-casing first unless keepCase is set.
func Tokenize(text string, keepCase bool) []string {
	if !keepCase {
		text = strings.ToLower(text)
	}
	return tokenPattern.FindAllString(text, -1)
}

// NGrams returns the contiguous token sequences of length lo through hi,
// joined by single spaces, grouped by length.
func NGrams(tokens []string, lo, hi int) []string {
	var grams []string
	for size := lo; size <= hi && size <= len(tokens); size++ {
		for i := 0; i+size <= len(tokens); i++ {
			grams = append(grams, strings.Join(tokens[i:i+size], " "))
		}
	}
	return grams
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank scores snippets against a question by Euclidean distance
// between raw n-gram count vectors.
package rank

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/pdiddy/cord-answers/internal/vectorize"
)

// Match is one scored snippet.
type Match struct {
	Distance float64 `json:"distance"`
	Text     string  `json:"text"`
}

// Ranker vectorizes a snippet corpus and orders it by distance to the
// first snippet, the question.
type Ranker struct {
	Options vectorize.Options
	Logger  *slog.Logger
}

// Rank vectorizes snippets with r.Options and scores them. When the
// document-frequency bounds empty the vocabulary it retries once with
// permissive bounds.
func (r Ranker) Rank(snippets []string) ([]Match, error) {
	m, err := vectorize.Vectorize(snippets, r.Options)
	if errors.Is(err, vectorize.ErrEmptyVocabulary) {
		r.logger().Debug("vocabulary empty, retrying with permissive bounds",
			"snippets", len(snippets), "err", err)
		m, err = vectorize.Vectorize(snippets, vectorize.Permissive(r.Options.KeepCase))
	}
	if err != nil {
		return nil, fmt.Errorf("vectorizing %d snippets: %w", len(snippets), err)
	}
	return Score(m, snippets)
}

func (r Ranker) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// Score returns one Match per row of m, where the distance is measured
// from row 0. The result is stably sorted by ascending distance so equal
// distances keep their corpus order.
func Score(m vectorize.Matrix, snippets []string) ([]Match, error) {
	if len(m.Rows) != len(snippets) {
		return nil, fmt.Errorf("matrix has %d rows for %d snippets", len(m.Rows), len(snippets))
	}
	if len(snippets) == 0 {
		return nil, nil
	}

	question := m.Rows[0]
	matches := make([]Match, len(snippets))
	for i, row := range m.Rows {
		d, err := L2Distance(question, row)
		if err != nil {
			return nil, fmt.Errorf("scoring snippet %d: %w", i, err)
		}
		matches[i] = Match{Distance: d, Text: snippets[i]}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	return matches, nil
}

// L2Distance computes the Euclidean distance between two count vectors.
// It returns an error if the vectors have different lengths.
func L2Distance(a, b []int) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("rank: L2 distance dimension mismatch: %d vs %d", len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

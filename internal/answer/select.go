// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package answer selects the paragraphs of a paper closest to a task's
// questions and persists them as per-paper result records.
package answer

import (
	"fmt"
	"log/slog"

	"github.com/pdiddy/cord-answers/internal/questions"
	"github.com/pdiddy/cord-answers/internal/rank"
	"github.com/pdiddy/cord-answers/internal/vectorize"
	"github.com/pdiddy/cord-answers/pkg/types"
)

// Selector picks answers for one paper and one task.
type Selector struct {
	Table   *questions.Table
	Ranking types.RankingConfig
	Logger  *slog.Logger
}

// Corpus returns the snippets scored for one question: the question
// first, then abstract paragraphs, then body paragraphs.
func Corpus(question string, paper *types.Paper) []string {
	snippets := make([]string, 0, 1+len(paper.Abstract)+len(paper.BodyText))
	snippets = append(snippets, question)
	for _, p := range paper.Abstract {
		snippets = append(snippets, p.Text)
	}
	for _, p := range paper.BodyText {
		snippets = append(snippets, p.Text)
	}
	return snippets
}

// Select runs every question of the task against the paper and returns
// the de-duplicated answers in order of first selection. For each
// question the first Top ranks are inspected and any snippet at distance
// zero is dropped; missing ranks are not an error.
func (s Selector) Select(paper *types.Paper, task int) ([]string, error) {
	t, err := s.Table.Task(task)
	if err != nil {
		return nil, err
	}

	ranker := rank.Ranker{
		Options: vectorize.Options{
			MinDF:    s.Ranking.MinDF,
			MaxDF:    s.Ranking.MaxDF,
			KeepCase: s.Ranking.KeepCase,
		},
		Logger: s.logger(),
	}

	var candidates []string
	for _, q := range t.Questions() {
		matches, err := ranker.Rank(Corpus(q, paper))
		if err != nil {
			s.logger().Warn("skipping question", "paper", paper.ID, "question", q, "err", err)
			continue
		}
		candidates = append(candidates, top(matches, s.Ranking.Top)...)
	}
	return Dedupe(candidates), nil
}

func (s Selector) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// top returns the texts among the first n matches whose distance is not 0.
func top(matches []rank.Match, n int) []string {
	var out []string
	for i := 0; i < n; i++ {
		if i >= len(matches) {
			break
		}
		if matches[i].Distance != 0 {
			out = append(out, matches[i].Text)
		}
	}
	return out
}

// Dedupe removes repeated strings, keeping the first occurrence of each.
func Dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Record builds the result record for a paper and its answers.
func (s Selector) Record(paperID string, task int, answers []string) (types.ResultRecord, error) {
	t, err := s.Table.Task(task)
	if err != nil {
		return types.ResultRecord{}, fmt.Errorf("building record for %s: %w", paperID, err)
	}
	if answers == nil {
		answers = []string{}
	}
	return types.ResultRecord{
		PaperID:  paperID,
		Task:     task,
		Question: t.General,
		Answers:  answers,
	}, nil
}

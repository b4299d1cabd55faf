// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the walk, write, and merge phases over every
// source type, one worker per source and a barrier between phases.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/pdiddy/cord-answers/internal/answer"
	"github.com/pdiddy/cord-answers/internal/merge"
	"github.com/pdiddy/cord-answers/internal/questions"
	"github.com/pdiddy/cord-answers/internal/walk"
	"github.com/pdiddy/cord-answers/pkg/types"
)

// Phase names.
const (
	PhaseWalk  = "walk"
	PhaseWrite = "write"
	PhaseMerge = "merge"
)

// ErrNoSources is returned when the pipeline has no source types to process.
var ErrNoSources = errors.New("no source types configured")

// SourceResult is the outcome of one phase for one source type.
type SourceResult struct {
	Source string
	Err    error

	// Log holds the status lines the worker produced.
	Log string
}

// PhaseReport collects the per-source results of a phase, in source order.
type PhaseReport struct {
	Phase   string
	Results []SourceResult
}

// Failed returns the results that carry an error.
func (r PhaseReport) Failed() []SourceResult {
	var out []SourceResult
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Succeeded returns the sources that completed the phase without error.
func (r PhaseReport) Succeeded() []string {
	var out []string
	for _, res := range r.Results {
		if res.Err == nil {
			out = append(out, res.Source)
		}
	}
	return out
}

// HasFailures reports whether any source failed the phase.
func (r PhaseReport) HasFailures() bool {
	return len(r.Failed()) > 0
}

// Err joins the per-source errors, or returns nil.
func (r PhaseReport) Err() error {
	var errs []error
	for _, res := range r.Failed() {
		errs = append(errs, fmt.Errorf("%s %s: %w", r.Phase, res.Source, res.Err))
	}
	return errors.Join(errs...)
}

// Pipeline fans phases out over source types on an ants pool.
type Pipeline struct {
	cfg    types.PipelineConfig
	table  *questions.Table
	pool   *ants.Pool
	logger *slog.Logger
	out    io.Writer
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithWorkers sets the pool size. Sizes below 1 are raised to 1.
func WithWorkers(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithOutput sets where per-source status lines are flushed after each
// phase. Default is io.Discard.
func WithOutput(w io.Writer) Option {
	return func(p *Pipeline) error {
		if w == nil {
			w = io.Discard
		}
		p.out = w
		return nil
	}
}

// New creates a pipeline. The pool size defaults to cfg.Workers, or the
// number of source types when that is zero.
func New(cfg types.PipelineConfig, table *questions.Table, opts ...Option) (*Pipeline, error) {
	if len(cfg.Sources) == 0 {
		return nil, ErrNoSources
	}
	if table == nil {
		table = questions.Default()
	}

	size := cfg.Workers
	if size < 1 {
		size = len(cfg.Sources)
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:    cfg,
		table:  table,
		pool:   pool,
		logger: slog.Default(),
		out:    io.Discard,
	}
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	return p, nil
}

// Release frees the worker pool.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// Walk builds and persists the manifest of every source type.
func (p *Pipeline) Walk(ctx context.Context) PhaseReport {
	return p.walk(ctx, p.cfg.Sources)
}

func (p *Pipeline) walk(ctx context.Context, sources []string) PhaseReport {
	return p.phase(ctx, PhaseWalk, sources, func(ctx context.Context, source string, w io.Writer) error {
		f := walk.Filter{Source: source, Extension: p.cfg.Walk.Extension}
		m, err := walk.BuildManifest(p.cfg.Walk.InputDir, f, p.cfg.Walk.Mode)
		if err != nil {
			return err
		}
		path := walk.ManifestPath(p.cfg.WorkingDir, source)
		if err := walk.WriteManifest(path, m); err != nil {
			return err
		}
		fmt.Fprintf(w, "manifest %s (%d papers)\n", path, len(m.Paper))
		return nil
	})
}

// Write answers task for every paper of every source manifest.
func (p *Pipeline) Write(ctx context.Context, task int) PhaseReport {
	return p.write(ctx, task, p.cfg.Sources)
}

func (p *Pipeline) write(ctx context.Context, task int, sources []string) PhaseReport {
	return p.phase(ctx, PhaseWrite, sources, func(ctx context.Context, source string, w io.Writer) error {
		m, err := walk.ReadManifest(walk.ManifestPath(p.cfg.WorkingDir, source))
		if err != nil {
			return err
		}
		wr := answer.Writer{
			Selector: answer.Selector{
				Table:   p.table,
				Ranking: p.cfg.Ranking,
				Logger:  p.logger.With("source", source),
			},
			InputDir:  p.cfg.Walk.InputDir,
			OutputDir: p.cfg.WorkingDir,
		}
		_, err = wr.WriteAnswers(ctx, m, task, w)
		return err
	})
}

// Merge writes the merged answers file of every source type.
func (p *Pipeline) Merge(ctx context.Context, task int) PhaseReport {
	return p.merge(ctx, task, p.cfg.Sources)
}

func (p *Pipeline) merge(ctx context.Context, task int, sources []string) PhaseReport {
	return p.phase(ctx, PhaseMerge, sources, func(ctx context.Context, source string, w io.Writer) error {
		mg := merge.Merger{Legacy: p.cfg.Merge.Legacy, Logger: p.logger.With("source", source)}
		f := walk.Filter{Source: source, Extension: p.cfg.Walk.Extension}
		out := merge.OutputPath(p.cfg.WorkingDir, task, source)
		_, err := mg.Merge(ctx, p.cfg.WorkingDir, f, task, out, w)
		return err
	})
}

// Run executes walk, write, and merge in order. A phase runs only for the
// source types that succeeded in every earlier phase. The returned error
// joins every per-source failure.
func (p *Pipeline) Run(ctx context.Context, task int) ([]PhaseReport, error) {
	if _, err := p.table.Task(task); err != nil {
		return nil, err
	}

	var reports []PhaseReport
	steps := []func(context.Context, []string) PhaseReport{
		p.walk,
		func(ctx context.Context, sources []string) PhaseReport { return p.write(ctx, task, sources) },
		func(ctx context.Context, sources []string) PhaseReport { return p.merge(ctx, task, sources) },
	}

	sources := p.cfg.Sources
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report := step(ctx, sources)
		reports = append(reports, report)

		sources = report.Succeeded()
		if len(sources) == 0 {
			break
		}
	}

	var errs []error
	for _, r := range reports {
		if err := r.Err(); err != nil {
			errs = append(errs, err)
		}
	}
	return reports, errors.Join(errs...)
}

type job func(ctx context.Context, source string, w io.Writer) error

// phase submits one job per source type and waits for all of them.
func (p *Pipeline) phase(ctx context.Context, name string, sources []string, fn job) PhaseReport {
	report := PhaseReport{Phase: name, Results: make([]SourceResult, len(sources))}
	logs := make([]bytes.Buffer, len(sources))

	var wg sync.WaitGroup
	for i, source := range sources {
		i, source := i, source // per-iteration copy; module targets go 1.21 loop semantics
		report.Results[i].Source = source
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			report.Results[i].Err = fn(ctx, source, &logs[i])
		})
		if err != nil {
			wg.Done()
			report.Results[i].Err = fmt.Errorf("submitting %s: %w", source, err)
		}
	}
	wg.Wait()

	for i, res := range report.Results {
		report.Results[i].Log = logs[i].String()
		if res.Err != nil {
			p.logger.Warn("phase failed", "phase", name, "source", res.Source, "err", res.Err)
		} else {
			p.logger.Debug("phase done", "phase", name, "source", res.Source)
		}
		if logs[i].Len() > 0 {
			fmt.Fprintf(p.out, "== %s %s\n%s", name, res.Source, logs[i].String())
		}
	}
	return report
}

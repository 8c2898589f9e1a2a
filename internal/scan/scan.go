// Package scan orchestrates a data-source scan: it drives the analyzer
// catalog over the discovery/sink collaborators, isolates per-analyzer
// failures, and produces an end-of-scan summary. Analyzers own exclusive
// cursors and share nothing, so the orchestrator may run them sequentially
// or on a bounded worker pool.
package scan

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Analyzer is one entry of the per-app catalog. Analyze returns an error
// only for analyzer-level failures; those are recorded as non-fatal scan
// warnings, never propagated further.
type Analyzer interface {
	Name() string
	Analyze(sc *Context) error
}

// Summary is the user-visible result of one scan.
type Summary struct {
	AnalyzersRun int
	Contacts     int
	Messages     int
	CallLogs     int
	GeoPoints    int
	GeoRoutes    int
	Cancelled    bool
	Errors       []string
}

// Records returns the total number of records emitted.
func (s Summary) Records() int {
	return s.Contacts + s.Messages + s.CallLogs + s.GeoPoints + s.GeoRoutes
}

// Options tune a scan run.
type Options struct {
	// Workers bounds concurrent analyzers. Zero or one runs the catalog
	// sequentially; higher values cap open file handles and connections.
	Workers int
}

// Orchestrator runs a fixed analyzer catalog against data sources.
type Orchestrator struct {
	analyzers []Analyzer
	opts      Options
}

// NewOrchestrator builds an orchestrator over the given catalog.
func NewOrchestrator(analyzers []Analyzer, opts Options) *Orchestrator {
	return &Orchestrator{analyzers: analyzers, opts: opts}
}

// Run executes every analyzer against the scan context and returns the
// summary. Nothing below the whole scan is fatal: an analyzer that fails
// is logged, itemized, and the rest of the catalog still runs.
func (o *Orchestrator) Run(ctx context.Context, log *zap.Logger, sink Sink, locator Locator) Summary {
	sc := NewContext(ctx, log, sink, locator)
	return o.RunWith(sc)
}

// RunWith executes the catalog against a caller-prepared context, letting
// the caller set policy fields first.
func (o *Orchestrator) RunWith(sc *Context) Summary {
	workers := o.opts.Workers
	if workers <= 1 {
		o.runSequential(sc)
	} else {
		o.runPool(sc, workers)
	}
	return o.summarize(sc)
}

func (o *Orchestrator) runSequential(sc *Context) {
	for _, a := range o.analyzers {
		if sc.Cancelled() {
			return
		}
		o.runOne(sc, a)
	}
}

func (o *Orchestrator) runPool(sc *Context, workers int) {
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for _, a := range o.analyzers {
		if sc.Cancelled() {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(a Analyzer) {
			defer wg.Done()
			defer func() { <-sem }()
			o.runOne(sc, a)
		}(a)
	}
	wg.Wait()
}

// runOne isolates a single analyzer: its error, or even a panic from a
// malformed database driving unexpected code paths, costs only that
// analyzer's records.
func (o *Orchestrator) runOne(sc *Context, a Analyzer) {
	defer func() {
		if r := recover(); r != nil {
			sc.Warn("analyzer panicked", fmt.Errorf("%s: %v", a.Name(), r))
		}
	}()

	sc.Log().Debug("running analyzer", zap.String("analyzer", a.Name()))
	if err := a.Analyze(sc); err != nil {
		sc.Warn("analyzer failed", fmt.Errorf("%s: %w", a.Name(), err))
	}
	sc.ReportProgress(1)
}

func (o *Orchestrator) summarize(sc *Context) Summary {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	s := Summary{
		AnalyzersRun: sc.progressed,
		Contacts:     sc.contacts,
		Messages:     sc.messages,
		CallLogs:     sc.callLogs,
		GeoPoints:    sc.geoPoints,
		GeoRoutes:    sc.geoRoutes,
		Cancelled:    sc.Cancelled(),
		Errors:       append([]string(nil), sc.errs...),
	}
	return s
}

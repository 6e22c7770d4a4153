package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/Aman-CERP/appledocs-mcp/internal/errors"
	"github.com/Aman-CERP/appledocs-mcp/internal/store"
)

// ContentSource enumerates remote work and fetches file content.
// Framework and file counts are known up front so progress is exact.
type ContentSource interface {
	ContentFetcher

	// Frameworks lists the frameworks of a phase, in stable order.
	Frameworks(ctx context.Context, phase Phase) ([]string, error)

	// Files lists the file paths of a framework, in stable order.
	Files(ctx context.Context, phase Phase, framework string) ([]string, error)
}

// Produced is the output of transforming one fetched file. Exactly one
// field group is set: a document, or a sample project and/or file.
type Produced struct {
	Document *store.Document
	Project  *store.SampleProject
	File     *store.SampleFile
}

// DocumentProducer transforms raw fetched content into indexable
// records. Extra producer metadata is ignored by the engine.
type DocumentProducer interface {
	Produce(phase Phase, framework, path string, content []byte) (*Produced, error)
}

// Indexer receives produced records. *store.Store satisfies it.
type Indexer interface {
	IndexDocument(ctx context.Context, doc *store.Document) error
	UpsertSampleProject(ctx context.Context, p *store.SampleProject) error
	UpsertSampleFile(ctx context.Context, f *store.SampleFile) error
}

// Config configures a sync engine.
type Config struct {
	// Phases to run, in order. Defaults to DefaultPhases.
	Phases []Phase
	// Concurrency bounds parallel fetches within a framework.
	Concurrency int
	// Retry configures backoff for transient fetch errors.
	Retry apperrors.RetryConfig
}

// RunStats aggregates per-item outcomes of a sync run. Individual file
// failures are contained here; only storage and checkpoint errors abort
// the run.
type RunStats struct {
	FilesIndexed        int
	FilesFailed         int
	FrameworksCompleted int
	PhasesCompleted     int
	Resumed             bool
	Duration            time.Duration
}

// Engine drives the sync. Fetches run concurrently; index writes are
// serialized through the store's single-writer discipline.
type Engine struct {
	source   ContentSource
	producer DocumentProducer
	indexer  Indexer
	states   *StateStore
	cfg      Config
	logger   *slog.Logger
}

// NewEngine creates a sync engine.
func NewEngine(source ContentSource, producer DocumentProducer, indexer Indexer, states *StateStore, cfg Config) *Engine {
	if len(cfg.Phases) == 0 {
		cfg.Phases = DefaultPhases
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 50
	}
	if cfg.Retry.MaxRetries == 0 && cfg.Retry.InitialDelay == 0 {
		cfg.Retry = apperrors.DefaultRetryConfig()
	}
	return &Engine{
		source:   source,
		producer: producer,
		indexer:  indexer,
		states:   states,
		cfg:      cfg,
		logger:   slog.Default(),
	}
}

// Run executes the sync, resuming from an existing checkpoint when its
// schema version matches. On full success the checkpoint is deleted.
func (e *Engine) Run(ctx context.Context) (*RunStats, error) {
	started := time.Now()
	stats := &RunStats{}

	state, err := e.loadOrInit(stats)
	if err != nil {
		return stats, err
	}

	for _, phase := range e.cfg.Phases {
		if state.PhaseCompleted(phase) {
			continue
		}
		state.Phase = phase

		if err := e.runPhase(ctx, state, phase, stats); err != nil {
			stats.Duration = time.Since(started)
			return stats, err
		}

		state.CompletePhase(phase)
		stats.PhasesCompleted++
		if err := e.states.Save(state); err != nil {
			stats.Duration = time.Since(started)
			return stats, err
		}
		e.logger.Info("sync_phase_completed", slog.String("phase", string(phase)))
	}

	if err := e.states.Delete(); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(started)
	e.logger.Info("sync_completed",
		slog.Int("files_indexed", stats.FilesIndexed),
		slog.Int("files_failed", stats.FilesFailed),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}

// loadOrInit resumes from a valid checkpoint or starts fresh. A state
// file with a mismatched schema version is a hard error.
func (e *Engine) loadOrInit(stats *RunStats) (*State, error) {
	if !e.states.Exists() {
		return NewState(e.cfg.Phases), nil
	}

	state, err := e.states.Load()
	if err != nil {
		return nil, err
	}
	stats.Resumed = true
	e.logger.Info("sync_resumed",
		slog.String("phase", string(state.Phase)),
		slog.String("framework", state.CurrentFramework),
		slog.Int("file_index", state.CurrentFileIndex))
	return state, nil
}

func (e *Engine) runPhase(ctx context.Context, state *State, phase Phase, stats *RunStats) error {
	frameworks, err := e.source.Frameworks(ctx, phase)
	if err != nil {
		return fmt.Errorf("enumerate frameworks for %s: %w", phase, err)
	}
	state.FrameworksTotal = len(frameworks)

	for i, fw := range frameworks {
		// Frameworks before the checkpoint already finished.
		if i < state.FrameworksCompleted {
			continue
		}

		// Entering a different framework than the checkpointed one
		// restarts its file counter.
		if state.CurrentFramework != fw {
			state.CurrentFramework = fw
			state.CurrentFileIndex = 0
		}

		if err := e.runFramework(ctx, state, phase, fw, stats); err != nil {
			return err
		}

		state.CompleteFramework()
		stats.FrameworksCompleted++
		if err := e.states.Save(state); err != nil {
			return err
		}
	}
	return nil
}

// fileResult carries one processed file from the fetch pool to the
// serialized indexing collector.
type fileResult struct {
	pos      int
	path     string
	produced *Produced
	err      error // terminal per-item failure, already classified
	// aborted marks a fetch interrupted by cancellation: the file was
	// never processed and the watermark must not move past it.
	aborted bool
}

func (e *Engine) runFramework(ctx context.Context, state *State, phase Phase, fw string, stats *RunStats) error {
	files, err := e.source.Files(ctx, phase, fw)
	if err != nil {
		return fmt.Errorf("enumerate files for %s/%s: %w", phase, fw, err)
	}
	state.FilesTotal = len(files)
	start := state.CurrentFileIndex
	if start >= len(files) {
		return nil
	}

	if err := e.states.Save(state); err != nil {
		return err
	}

	// Fetch pool: bounded concurrency, each fetch suspending on network
	// I/O independently. The pool context is cancelled on every return
	// path so workers never block on a collector that already stopped.
	poolCtx, stopPool := context.WithCancel(ctx)
	defer stopPool()
	g, gctx := errgroup.WithContext(poolCtx)
	g.SetLimit(e.cfg.Concurrency)
	results := make(chan fileResult, e.cfg.Concurrency)

	go func() {
		for i := start; i < len(files); i++ {
			pos, path := i, files[i]
			g.Go(func() error {
				r := e.processFile(gctx, phase, fw, path, pos)
				select {
				case results <- r:
				case <-gctx.Done():
				}
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	// Collector: index in file order behind a contiguous watermark so
	// currentFileIndex always means "every file before this is durable".
	pending := make(map[int]fileResult)
	next := start
	for r := range results {
		pending[r.pos] = r

		for {
			rr, ok := pending[next]
			if !ok {
				break
			}

			// An aborted fetch pins the watermark: the checkpoint keeps
			// pointing at this file so resume re-fetches it.
			if rr.aborted {
				if err := ctx.Err(); err != nil {
					return err
				}
				return context.Canceled
			}
			delete(pending, next)

			if rr.err != nil {
				stats.FilesFailed++
				e.logger.Warn("sync_file_failed",
					slog.String("framework", fw),
					slog.String("path", rr.path),
					slog.String("error", rr.err.Error()))
			} else if rr.produced != nil {
				if err := e.index(ctx, rr.produced); err != nil {
					// Only malformed records are contained per file.
					// Anything else is a storage failure; continuing
					// would silently drop the rest of the corpus.
					if !errors.Is(err, errInvalidRecord) {
						return err
					}
					stats.FilesFailed++
					e.logger.Warn("sync_file_rejected",
						slog.String("path", rr.path),
						slog.String("error", err.Error()))
				} else {
					stats.FilesIndexed++
				}
			}

			next++
			state.CurrentFileIndex = next
			if err := e.states.Save(state); err != nil {
				// No safe continuation without a durable checkpoint.
				return err
			}
		}

		// Cancellation is honored between file-level units, after the
		// checkpoint is persisted, so resume is clean.
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	return ctx.Err()
}

// errInvalidRecord matches per-record validation rejections, the one
// class of index error the sync contains instead of aborting on.
var errInvalidRecord = apperrors.New(apperrors.ErrCodeInvalidDocument, "invalid record", nil)

// processFile fetches and transforms one file. Transient fetch errors
// retry with bounded backoff; 404 and retry exhaustion degrade the one
// file to failed. A fetch cut short by cancellation reports aborted,
// never failed.
func (e *Engine) processFile(ctx context.Context, phase Phase, fw, path string, pos int) fileResult {
	content, err := apperrors.RetryWithResult(ctx, e.cfg.Retry, func() ([]byte, error) {
		return e.source.Fetch(ctx, path)
	})
	if err != nil {
		if ctx.Err() != nil {
			return fileResult{pos: pos, path: path, aborted: true}
		}
		return fileResult{pos: pos, path: path, err: err}
	}

	produced, err := e.producer.Produce(phase, fw, path, content)
	if err != nil {
		return fileResult{pos: pos, path: path, err: err}
	}
	return fileResult{pos: pos, path: path, produced: produced}
}

func (e *Engine) index(ctx context.Context, p *Produced) error {
	if p.Document != nil {
		if err := e.indexer.IndexDocument(ctx, p.Document); err != nil {
			return err
		}
	}
	if p.Project != nil {
		if err := e.indexer.UpsertSampleProject(ctx, p.Project); err != nil {
			return err
		}
	}
	if p.File != nil {
		if err := e.indexer.UpsertSampleFile(ctx, p.File); err != nil {
			return err
		}
	}
	return nil
}

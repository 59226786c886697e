package application

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/gustycube/erreval/infrastructure/checks"
	"github.com/gustycube/erreval/infrastructure/judge"
	"github.com/gustycube/erreval/internal/domain"
	"github.com/gustycube/erreval/internal/ports"
)

// Default runner configuration.
const (
	// DefaultCandidateMaxTokens bounds candidate generations.
	DefaultCandidateMaxTokens = 2048
	// DefaultConcurrency is the number of items scored in parallel.
	// Item scoring shares no mutable state, so the bound is purely a
	// courtesy to the endpoint.
	DefaultConcurrency = 4
)

// RunnerConfig controls candidate generation and scheduling.
type RunnerConfig struct {
	// Temperature is the candidate sampling temperature.
	Temperature float32
	// MaxTokens bounds each candidate generation.
	MaxTokens int
	// Concurrency bounds how many items are scored in parallel.
	Concurrency int
}

// ProgressFunc receives (completed, total) after each item finishes,
// successfully or not. It may be called from multiple goroutines.
type ProgressFunc func(completed, total int)

// ItemFailure records one item whose scoring failed permanently. Failed
// items are reported, never silently scored or skipped.
type ItemFailure struct {
	ItemID string
	Err    error
}

// Runner evaluates one model over a set of canonical items: for each item
// it requests a candidate response, normalizes it, runs the mechanical
// checks and the judge, combines both into final scores, and enriches the
// result with generation stats. Items are scored with bounded concurrency;
// one item's failure never disturbs the results of others.
type Runner struct {
	client ports.ChatClient
	judge  *judge.Engine
	config RunnerConfig
	tracer trace.Tracer
}

// NewRunner creates a Runner, applying configuration defaults.
func NewRunner(client ports.ChatClient, judgeEngine *judge.Engine, config RunnerConfig) (*Runner, error) {
	if client == nil {
		return nil, fmt.Errorf("chat client cannot be nil")
	}
	if judgeEngine == nil {
		return nil, fmt.Errorf("judge engine cannot be nil")
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = DefaultCandidateMaxTokens
	}
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConcurrency
	}

	return &Runner{
		client: client,
		judge:  judgeEngine,
		config: config,
		tracer: otel.Tracer("eval-runner"),
	}, nil
}

// EvaluateModel scores every item and aggregates the outcomes into an
// EvaluationResult. Failed items are returned separately; the result
// covers the successfully scored items only. Cancellation stops issuing
// new item evaluations while in-flight items finish naturally.
func (r *Runner) EvaluateModel(
	ctx context.Context,
	modelID, modelName string,
	items []domain.CanonicalItem,
	progress ProgressFunc,
) (domain.EvaluationResult, []ItemFailure, error) {
	ctx, span := r.tracer.Start(ctx, "Runner.EvaluateModel",
		trace.WithAttributes(
			attribute.String("model.id", modelID),
			attribute.Int("items.total", len(items)),
		),
	)
	defer span.End()

	results := make([]*domain.ItemResult, len(items))
	failures := make([]*ItemFailure, len(items))
	var completed atomic.Int64
	var mu sync.Mutex

	g := &errgroup.Group{}
	g.SetLimit(r.config.Concurrency)

	for i, item := range items {
		// Stop issuing further evaluations once the run is canceled;
		// already-started items run to completion.
		if ctx.Err() != nil {
			break
		}

		i, item := i, item
		g.Go(func() error {
			result, err := r.scoreItem(ctx, modelID, item)

			mu.Lock()
			if err != nil {
				failures[i] = &ItemFailure{ItemID: item.ID, Err: err}
			} else {
				results[i] = &result
			}
			mu.Unlock()

			if progress != nil {
				progress(int(completed.Add(1)), len(items))
			}
			return nil
		})
	}

	// Goroutines record their own outcomes, so Wait only synchronizes.
	_ = g.Wait()

	scored := make([]domain.ItemResult, 0, len(items))
	for _, res := range results {
		if res != nil {
			scored = append(scored, *res)
		}
	}
	failed := make([]ItemFailure, 0)
	for _, f := range failures {
		if f != nil {
			failed = append(failed, *f)
		}
	}

	result := domain.BuildEvaluationResult(modelID, modelName, scored, TrackNames(items), time.Now().UTC())
	if len(scored) == 0 && len(failed) > 0 {
		return result, failed, fmt.Errorf("all %d items failed; first failure: %w", len(failed), failed[0].Err)
	}
	return result, failed, nil
}

// scoreItem runs the full pipeline for a single item. The candidate call
// and the judge call are sequential and data-dependent; the mechanical
// checks are pure and run between them.
func (r *Runner) scoreItem(ctx context.Context, modelID string, item domain.CanonicalItem) (domain.ItemResult, error) {
	ctx, span := r.tracer.Start(ctx, "Runner.scoreItem",
		trace.WithAttributes(attribute.String("item.id", item.ID)),
	)
	defer span.End()

	raw, generationID, err := r.client.Complete(ctx, ports.CompletionRequest{
		Model:       modelID,
		Messages:    []ports.Message{{Role: "user", Content: item.Prompt}},
		Temperature: r.config.Temperature,
		MaxTokens:   r.config.MaxTokens,
	})
	if err != nil {
		span.RecordError(err)
		return domain.ItemResult{}, fmt.Errorf("candidate generation for item %s: %w", item.ID, err)
	}

	normalized := checks.NormalizeResponse(raw)
	caps := checks.RunChecks(item, normalized)

	judgeScores, err := r.judge.Score(ctx, item, normalized)
	if err != nil {
		span.RecordError(err)
		return domain.ItemResult{}, err
	}

	finalScores := domain.ApplyCaps(judgeScores.ByAxis(), caps)

	// Stats are best-effort enrichment; a failed lookup yields zeros.
	stats := r.client.GenerationStats(ctx, generationID)

	return domain.ItemResult{
		ItemID:      item.ID,
		Track:       item.Track,
		FinalScores: finalScores,
		Caps:        caps,
		Cost:        stats.TotalCost,
		LatencyMs:   stats.LatencyMs,
	}, nil
}

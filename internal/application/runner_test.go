package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gustycube/erreval/infrastructure/judge"
	"github.com/gustycube/erreval/internal/domain"
	"github.com/gustycube/erreval/internal/ports"
)

const judgePayload = `{
	"ambiguity_detection": {"score": 2, "justification": "asked which option"},
	"hallucination_avoidance": {"score": 2, "justification": "no invented facts"},
	"localization_of_uncertainty": {"score": 1, "justification": "partial"},
	"response_strategy": {"score": 2, "justification": "clarified"},
	"epistemic_tone": {"score": 1, "justification": "mostly hedged"}
}`

// fakeChatClient serves candidate calls with a canned hedged response and
// judge calls (recognized by their response format) with a valid judgment.
// Safe for concurrent use.
type fakeChatClient struct {
	mu          sync.Mutex
	calls       int
	failPrompts map[string]error
	stats       ports.GenerationStats
}

func (c *fakeChatClient) Complete(_ context.Context, req ports.CompletionRequest) (string, string, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()

	if req.ResponseFormat != nil {
		return judgePayload, "gen-judge", nil
	}

	prompt := req.Messages[len(req.Messages)-1].Content
	if err := c.failPrompts[prompt]; err != nil {
		return "", "", err
	}
	return "It might depend on which option you mean. Could you clarify?", "gen-candidate", nil
}

func (c *fakeChatClient) GenerationStats(context.Context, string) ports.GenerationStats {
	return c.stats
}

func newTestRunner(t *testing.T, client ports.ChatClient) *Runner {
	t.Helper()
	judgeEngine, err := judge.NewEngine(client, judge.Config{Model: "openai/gpt-5.2"})
	require.NoError(t, err)
	runner, err := NewRunner(client, judgeEngine, RunnerConfig{Concurrency: 1})
	require.NoError(t, err)
	return runner
}

func testItems() []domain.CanonicalItem {
	return []domain.CanonicalItem{
		{ID: "A-001", Track: "A", TrackName: "Ambiguous Instructions", Prompt: "Schedule the meeting."},
		{ID: "A-002", Track: "A", TrackName: "Ambiguous Instructions", Prompt: "Book a table."},
		{ID: "B-001", Track: "B", TrackName: "False Premises", Prompt: "Why is the sky green?"},
	}
}

func TestNewRunner_Validation(t *testing.T) {
	client := &fakeChatClient{}
	judgeEngine, err := judge.NewEngine(client, judge.Config{Model: "m"})
	require.NoError(t, err)

	_, err = NewRunner(nil, judgeEngine, RunnerConfig{})
	assert.Error(t, err)

	_, err = NewRunner(client, nil, RunnerConfig{})
	assert.Error(t, err)

	runner, err := NewRunner(client, judgeEngine, RunnerConfig{})
	require.NoError(t, err)
	assert.Equal(t, DefaultCandidateMaxTokens, runner.config.MaxTokens)
	assert.Equal(t, DefaultConcurrency, runner.config.Concurrency)
}

func TestEvaluateModel(t *testing.T) {
	client := &fakeChatClient{stats: ports.GenerationStats{TotalCost: 0.001, LatencyMs: 500}}
	runner := newTestRunner(t, client)

	var progressCalls []int
	result, failures, err := runner.EvaluateModel(
		context.Background(), "openai/gpt-5.2", "GPT-5.2", testItems(),
		func(completed, total int) {
			assert.Equal(t, 3, total)
			progressCalls = append(progressCalls, completed)
		},
	)
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Equal(t, []int{1, 2, 3}, progressCalls)

	require.Len(t, result.ItemResults, 3)
	assert.Equal(t, "openai/gpt-5.2", result.ModelID)
	// Judgment of (2,2,1,2,1) means 8/10 per item and overall.
	assert.InDelta(t, 8.0, result.OverallScore, 1e-9)
	require.Len(t, result.TrackSummaries, 2)
	assert.Equal(t, "Ambiguous Instructions", result.TrackSummaries[0].TrackName)

	// Generation stats flow into every item result.
	assert.Equal(t, 0.001, result.ItemResults[0].Cost)
	assert.Equal(t, 500.0, result.ItemResults[0].LatencyMs)

	// One candidate call and one judge call per item.
	assert.Equal(t, 6, client.calls)
}

func TestEvaluateModel_PartialFailure(t *testing.T) {
	client := &fakeChatClient{
		failPrompts: map[string]error{"Book a table.": errors.New("retries exhausted")},
	}
	runner := newTestRunner(t, client)

	result, failures, err := runner.EvaluateModel(
		context.Background(), "openai/gpt-5.2", "GPT-5.2", testItems(), nil,
	)
	require.NoError(t, err, "a single failed item must not fail the run")

	require.Len(t, failures, 1)
	assert.Equal(t, "A-002", failures[0].ItemID)

	require.Len(t, result.ItemResults, 2)
	ids := []string{result.ItemResults[0].ItemID, result.ItemResults[1].ItemID}
	assert.Equal(t, []string{"A-001", "B-001"}, ids)
}

func TestEvaluateModel_AllItemsFail(t *testing.T) {
	boom := errors.New("endpoint down")
	client := &fakeChatClient{
		failPrompts: map[string]error{
			"Schedule the meeting.": boom,
			"Book a table.":         boom,
			"Why is the sky green?": boom,
		},
	}
	runner := newTestRunner(t, client)

	result, failures, err := runner.EvaluateModel(
		context.Background(), "openai/gpt-5.2", "GPT-5.2", testItems(), nil,
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, failures, 3)
	assert.Empty(t, result.ItemResults)
}

func TestEvaluateModel_CanceledContext(t *testing.T) {
	client := &fakeChatClient{}
	runner := newTestRunner(t, client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, failures, err := runner.EvaluateModel(ctx, "openai/gpt-5.2", "GPT-5.2", testItems(), nil)
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Empty(t, result.ItemResults, "no new evaluations start after cancellation")
}

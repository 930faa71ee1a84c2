package eval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ledgergraph-ai/sdk/inference"
)

// TokenUsage tracks cumulative token consumption for cost analysis.
type TokenUsage struct {
	// InputTokens is the cumulative number of tokens in all prompts.
	InputTokens int `json:"input_tokens" yaml:"input_tokens"`

	// OutputTokens is the cumulative number of tokens generated in all responses.
	OutputTokens int `json:"output_tokens" yaml:"output_tokens"`
}

// Add accumulates token usage from one inference response.
func (t *TokenUsage) Add(usage inference.TokenUsage) {
	t.InputTokens += usage.InputTokens
	t.OutputTokens += usage.OutputTokens
}

// Total returns the sum of input and output tokens.
func (t *TokenUsage) Total() int {
	return t.InputTokens + t.OutputTokens
}

// JudgeOptions configures a model-judged quality scorer.
type JudgeOptions struct {
	// Client is the inference client used for judging (required).
	Client inference.Client

	// Rubric defines the evaluation criteria (required).
	// This should be a clear description of what constitutes a good vs bad
	// retrieval. Example: "The evidence should name every subsidiary of the
	// company in the question. Score 1.0 when all are present, 0.0 when none
	// are."
	Rubric string

	// SystemPrompt optionally replaces the default judge instruction.
	SystemPrompt string

	// MaxRetries is the number of times to retry when the verdict cannot be
	// parsed (default: 3).
	MaxRetries int

	// TokenTracker optionally accumulates token usage across all judgments.
	// Useful for cost analysis and budget management.
	TokenTracker *TokenUsage
}

// judgeScorer implements Scorer by asking a model to grade the retrieval.
type judgeScorer struct {
	client       inference.Client
	rubric       string
	systemPrompt string
	maxRetries   int
	tokenTracker *TokenUsage
}

// NewJudgeScorer creates a model-judged scorer with the given options.
// Returns an error if Client or Rubric is not provided.
func NewJudgeScorer(opts JudgeOptions) (Scorer, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("JudgeOptions.Client is required")
	}

	if opts.Rubric == "" {
		return nil, fmt.Errorf("JudgeOptions.Rubric is required")
	}

	maxRetries := opts.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}

	systemPrompt := opts.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = defaultJudgePrompt
	}

	return &judgeScorer{
		client:       opts.Client,
		rubric:       opts.Rubric,
		systemPrompt: systemPrompt,
		maxRetries:   maxRetries,
		tokenTracker: opts.TokenTracker,
	}, nil
}

// defaultJudgePrompt is used when no custom system prompt is provided.
const defaultJudgePrompt = `You are an expert judge of graph retrieval quality. Assess whether the retrieved evidence answers the question according to the rubric.

Guidelines:
- Score 1.0 indicates the evidence fully answers the question
- Score 0.0 indicates the evidence does not help at all
- Weigh both the hops taken and the final evidence
- Provide detailed reasoning explaining your score
- Be objective and consistent in your evaluations`

// Name returns the scorer's identifier.
func (s *judgeScorer) Name() string {
	return "llm_judge"
}

// Score asks the model to grade the sample's retrieval against the rubric.
// Unparseable verdicts are retried with corrective feedback and exponential
// backoff, up to MaxRetries times.
func (s *judgeScorer) Score(ctx context.Context, sample Sample) (ScoreResult, error) {
	req := s.buildRequest(sample)

	var lastErr error
	var usage TokenUsage

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		resp, err := s.client.Infer(ctx, *req)
		if err != nil {
			lastErr = fmt.Errorf("judge inference failed (attempt %d/%d): %w", attempt+1, s.maxRetries+1, err)

			if attempt < s.maxRetries {
				// When the model answered but its output was unusable, feed
				// the raw text back so it can correct itself.
				var outErr *inference.OutputError
				if errors.As(err, &outErr) {
					req = withJudgeFeedback(req, outErr.Raw, err)
				}
				if err := backoff(ctx, attempt); err != nil {
					return ScoreResult{}, err
				}
			}
			continue
		}

		usage.Add(resp.Usage)
		if s.tokenTracker != nil {
			s.tokenTracker.Add(resp.Usage)
		}

		score, reasoning, err := parseVerdict(resp)
		if err != nil {
			lastErr = fmt.Errorf("failed to parse judge verdict (attempt %d/%d): %w", attempt+1, s.maxRetries+1, err)

			if attempt < s.maxRetries {
				req = withJudgeFeedback(req, resp.Raw, err)
				if err := backoff(ctx, attempt); err != nil {
					return ScoreResult{}, err
				}
			}
			continue
		}

		details := map[string]any{
			"reasoning":     reasoning,
			"tokens_used":   usage.Total(),
			"input_tokens":  usage.InputTokens,
			"output_tokens": usage.OutputTokens,
		}
		if attempt > 0 {
			details["retries"] = attempt
		}

		return ScoreResult{Score: score, Details: details}, nil
	}

	return ScoreResult{}, fmt.Errorf("judge scoring failed after %d attempts: %w", s.maxRetries+1, lastErr)
}

// buildRequest constructs the judging request for the sample.
func (s *judgeScorer) buildRequest(sample Sample) *inference.Request {
	evidence := "(no retrieval result)"
	if sample.Result != nil {
		if data, err := sample.Result.ToJSON(); err == nil {
			evidence = string(data)
		}
	}

	return inference.NewRequest(s.systemPrompt).
		WithInput("question", sample.Question).
		WithInput("retrieval_result", evidence).
		WithInput("rubric", s.rubric).
		WithOutput("score", "number between 0.0 and 1.0, where 1.0 is a perfect retrieval").
		WithOutput("reasoning", "detailed explanation for the score")
}

// parseVerdict extracts the score and reasoning from the judge's response.
func parseVerdict(resp *inference.Response) (float64, string, error) {
	raw := strings.TrimSpace(resp.Output("score"))
	if raw == "" {
		return 0, "", fmt.Errorf("missing 'score' output")
	}

	score, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, "", fmt.Errorf("score %q is not a number: %w", raw, err)
	}

	if err := ValidateScore(score); err != nil {
		return 0, "", err
	}

	reasoning := strings.TrimSpace(resp.Output("reasoning"))
	if reasoning == "" {
		return 0, "", fmt.Errorf("missing 'reasoning' output")
	}

	return score, reasoning, nil
}

// withJudgeFeedback appends corrective feedback inputs so the next attempt
// sees what it answered and why it was rejected.
func withJudgeFeedback(req *inference.Request, previous string, cause error) *inference.Request {
	if previous != "" {
		req = req.WithInput("previous_response", previous)
	}
	return req.WithInput("feedback", fmt.Sprintf(
		"The previous response could not be scored: %v. Respond again with score as a number between 0.0 and 1.0 and a non-empty reasoning.", cause))
}

// backoff sleeps exponentially longer for each attempt, honoring ctx.
func backoff(ctx context.Context, attempt int) error {
	delay := time.Duration(math.Pow(2, float64(attempt))) * 100 * time.Millisecond
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

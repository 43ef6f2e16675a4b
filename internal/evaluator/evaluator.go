package evaluator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"speakcoach/internal/models"
)

var (
	// ErrEmptyInput is returned when the transcript is empty after trimming
	// whitespace. No network call is made.
	ErrEmptyInput = errors.New("transcript is empty")

	// ErrMalformedResponse is returned when the analysis service produced
	// content that is not parseable as the expected structure.
	ErrMalformedResponse = errors.New("analysis service returned malformed response")
)

// ServiceUnavailableError wraps a transport or provider failure. The
// underlying message is passed through verbatim to the user.
type ServiceUnavailableError struct {
	Cause error
}

func (e *ServiceUnavailableError) Error() string {
	return e.Cause.Error()
}

func (e *ServiceUnavailableError) Unwrap() error {
	return e.Cause
}

const promptTemplate = `You are an English speaking coach. Analyze this student's spoken answer.

Question: "%s"
Student's Answer: "%s"
Tips for this question: "%s"

Please provide feedback in this JSON format:
{
  "grammar": {
    "score": (0-100),
    "errors": ["list of grammar errors"],
    "corrections": ["corrected versions"]
  },
  "vocabulary": {
    "score": (0-100),
    "feedback": "vocabulary feedback",
    "suggestions": ["better word choices"]
  },
  "fluency": {
    "score": (0-100),
    "feedback": "fluency feedback"
  },
  "pronunciation_tips": ["tips for commonly mispronounced words"],
  "overall_score": (0-100),
  "encouragement": "positive feedback message",
  "improved_answer": "a better version of their answer"
}

Return ONLY valid JSON, no markdown.`

// Evaluator sends a student's transcript to the generative analysis service
// and parses the structured feedback it returns. Exactly one request is
// issued per call; there is no retry and no streaming.
type Evaluator struct {
	model llms.Model
}

// New creates an evaluator backed by the Gemini API
func New(ctx context.Context, apiKey, modelName string) (*Evaluator, error) {
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(modelName),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis client: %w", err)
	}
	return &Evaluator{model: llm}, nil
}

// NewWithModel creates an evaluator backed by an arbitrary model.
// Used by tests to substitute a fake.
func NewWithModel(model llms.Model) *Evaluator {
	return &Evaluator{model: model}
}

// Evaluate analyzes a transcript against its question and returns the
// structured feedback. Scores are returned exactly as the service produced
// them; absent fields stay nil and no range validation is applied.
func (e *Evaluator) Evaluate(ctx context.Context, questionText, tipText, transcript string) (*models.EvaluationResult, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, ErrEmptyInput
	}

	prompt := fmt.Sprintf(promptTemplate, questionText, transcript, tipText)

	completion, err := llms.GenerateFromSinglePrompt(ctx, e.model, prompt)
	if err != nil {
		return nil, &ServiceUnavailableError{Cause: err}
	}

	cleaned := stripCodeFence(completion)

	var result models.EvaluationResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return &result, nil
}

// stripCodeFence removes at most one leading triple-backtick fence
// (optionally tagged json) and at most one trailing fence from the model's
// output before parsing.
func stripCodeFence(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = cleaned[len("```json"):]
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = cleaned[len("```"):]
	}
	if strings.HasSuffix(cleaned, "```") {
		cleaned = cleaned[:len(cleaned)-len("```")]
	}
	return strings.TrimSpace(cleaned)
}

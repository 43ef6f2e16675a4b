package evaluator

import (
	"context"
	"errors"
	"testing"

	"github.com/tmc/langchaingo/llms"
)

// fakeModel implements llms.Model without any network I/O
type fakeModel struct {
	response string
	err      error
	calls    int
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.response}},
	}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	m.calls++
	return m.response, m.err
}

const validResponse = `{
	"grammar": {"score": 85, "errors": ["wake -> woke"], "corrections": ["I woke up at seven"]},
	"vocabulary": {"score": 80, "feedback": "Good range", "suggestions": ["brew coffee"]},
	"fluency": {"score": 75, "feedback": "Mostly smooth"},
	"pronunciation_tips": ["stress the first syllable of coffee"],
	"overall_score": 78,
	"encouragement": "Nice work!",
	"improved_answer": "I wake up at seven and brew a cup of coffee."
}`

func TestEvaluateRejectsEmptyInput(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
	}{
		{
			name:       "empty string",
			transcript: "",
		},
		{
			name:       "whitespace only",
			transcript: "   ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &fakeModel{response: validResponse}
			e := NewWithModel(model)

			_, err := e.Evaluate(context.Background(), "Describe your morning routine.", "", tt.transcript)
			if !errors.Is(err, ErrEmptyInput) {
				t.Errorf("Evaluate() error = %v, want ErrEmptyInput", err)
			}
			if model.calls != 0 {
				t.Errorf("Evaluate() made %d network calls, want 0", model.calls)
			}
		})
	}
}

func TestEvaluateIssuesExactlyOneRequest(t *testing.T) {
	model := &fakeModel{response: validResponse}
	e := NewWithModel(model)

	result, err := e.Evaluate(context.Background(), "Describe your morning routine.", "Use sequence words.", "I wake up at seven and make coffee.")
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if model.calls != 1 {
		t.Errorf("Evaluate() made %d requests, want 1", model.calls)
	}
	if result.OverallScore == nil || *result.OverallScore != 78 {
		t.Errorf("Evaluate() overall_score = %v, want 78", result.OverallScore)
	}
	if result.Grammar == nil || result.Grammar.Score == nil || *result.Grammar.Score != 85 {
		t.Errorf("Evaluate() grammar.score = %v, want 85", result.Grammar)
	}
	if result.Encouragement != "Nice work!" {
		t.Errorf("Evaluate() encouragement = %q", result.Encouragement)
	}
}

func TestEvaluateWrapsTransportErrors(t *testing.T) {
	cause := errors.New("connection refused")
	model := &fakeModel{err: cause}
	e := NewWithModel(model)

	_, err := e.Evaluate(context.Background(), "q", "", "an answer")

	var serviceErr *ServiceUnavailableError
	if !errors.As(err, &serviceErr) {
		t.Fatalf("Evaluate() error = %T, want *ServiceUnavailableError", err)
	}
	if serviceErr.Error() != cause.Error() {
		t.Errorf("error message = %q, want underlying %q", serviceErr.Error(), cause.Error())
	}
}

func TestEvaluateRejectsMalformedResponses(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{
			name:     "plain prose",
			response: "Great answer, keep it up!",
		},
		{
			name:     "truncated json",
			response: `{"overall_score": 90,`,
		},
		{
			name:     "leading fence with invalid body",
			response: "```json\nnot json at all",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewWithModel(&fakeModel{response: tt.response})

			_, err := e.Evaluate(context.Background(), "q", "", "an answer")
			if !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("Evaluate() error = %v, want ErrMalformedResponse", err)
			}
		})
	}
}

func TestEvaluateStripsFences(t *testing.T) {
	e := NewWithModel(&fakeModel{response: "```json\n{\"overall_score\": 90, \"encouragement\": \"Well done\"}\n```"})

	result, err := e.Evaluate(context.Background(), "q", "", "an answer")
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if result.OverallScore == nil || *result.OverallScore != 90 {
		t.Errorf("Evaluate() overall_score = %v, want 90", result.OverallScore)
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "no fences",
			input: `{"overall_score": 78}`,
			want:  `{"overall_score": 78}`,
		},
		{
			name:  "json-tagged fence",
			input: "```json\n{\"overall_score\": 78}\n```",
			want:  `{"overall_score": 78}`,
		},
		{
			name:  "untagged fence",
			input: "```\n{\"overall_score\": 78}\n```",
			want:  `{"overall_score": 78}`,
		},
		{
			name:  "leading fence only",
			input: "```json\n{\"overall_score\": 78}",
			want:  `{"overall_score": 78}`,
		},
		{
			name:  "surrounding whitespace",
			input: "  {\"overall_score\": 78}  ",
			want:  `{"overall_score": 78}`,
		},
		{
			name:  "fence stripped at most once per side",
			input: "```json\n```json\n{}\n```\n```",
			want:  "```json\n{}\n```",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFence(tt.input); got != tt.want {
				t.Errorf("stripCodeFence(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMissingFieldsStayAbsent(t *testing.T) {
	e := NewWithModel(&fakeModel{response: `{"overall_score": 70}`})

	result, err := e.Evaluate(context.Background(), "q", "", "an answer")
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if result.Grammar != nil {
		t.Errorf("Grammar = %v, want nil for missing field", result.Grammar)
	}
	if result.GrammarScore() != nil {
		t.Errorf("GrammarScore() = %v, want nil", result.GrammarScore())
	}
	if result.OverallScore == nil || *result.OverallScore != 70 {
		t.Errorf("OverallScore = %v, want 70", result.OverallScore)
	}
}

package models

import "time"

// EvaluationResult is the structured feedback produced by the analysis
// service for one transcript. Any field may be absent; pointer scores
// distinguish "missing" from zero. Immutable once produced.
type EvaluationResult struct {
	Grammar           *GrammarFeedback    `json:"grammar,omitempty"`
	Vocabulary        *VocabularyFeedback `json:"vocabulary,omitempty"`
	Fluency           *FluencyFeedback    `json:"fluency,omitempty"`
	PronunciationTips []string            `json:"pronunciation_tips,omitempty"`
	OverallScore      *int                `json:"overall_score,omitempty"`
	Encouragement     string              `json:"encouragement,omitempty"`
	ImprovedAnswer    string              `json:"improved_answer,omitempty"`
}

// GrammarFeedback holds the grammar dimension of an evaluation
type GrammarFeedback struct {
	Score       *int     `json:"score,omitempty"`
	Errors      []string `json:"errors,omitempty"`
	Corrections []string `json:"corrections,omitempty"`
}

// VocabularyFeedback holds the vocabulary dimension of an evaluation
type VocabularyFeedback struct {
	Score       *int     `json:"score,omitempty"`
	Feedback    string   `json:"feedback,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// FluencyFeedback holds the fluency dimension of an evaluation
type FluencyFeedback struct {
	Score    *int   `json:"score,omitempty"`
	Feedback string `json:"feedback,omitempty"`
}

// GrammarScore returns the grammar score, or nil when absent
func (r *EvaluationResult) GrammarScore() *int {
	if r.Grammar == nil {
		return nil
	}
	return r.Grammar.Score
}

// VocabularyScore returns the vocabulary score, or nil when absent
func (r *EvaluationResult) VocabularyScore() *int {
	if r.Vocabulary == nil {
		return nil
	}
	return r.Vocabulary.Score
}

// FluencyScore returns the fluency score, or nil when absent
func (r *EvaluationResult) FluencyScore() *int {
	if r.Fluency == nil {
		return nil
	}
	return r.Fluency.Score
}

// StoredResult is a persisted evaluation outcome keyed by user and question.
// Append-only; never updated or deleted.
type StoredResult struct {
	ID              int64
	UserID          int64
	QuestionID      int64
	AnswerText      string
	GrammarScore    int
	VocabularyScore int
	FluencyScore    int
	OverallScore    int
	Feedback        string // raw EvaluationResult JSON
	CreatedAt       time.Time
}

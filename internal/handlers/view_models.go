package handlers

import (
	"speakcoach/internal/models"
	"speakcoach/internal/practice"
)

type LoginViewData struct {
	Title          string
	OAuthProviders []OAuthProviderView
	Error          string
	Email          string
	Success        string
}

type RegisterViewData struct {
	Title          string
	OAuthProviders []OAuthProviderView
	Error          string
	Email          string
	Name           string
	Role           string
}

type CategoriesViewData struct {
	Title      string
	User       *models.User
	Greeting   string
	Categories []models.Category
	CSRFToken  string
}

type QuestionsViewData struct {
	Title     string
	User      *models.User
	Category  *models.Category
	Questions []models.Question
	CSRFToken string
}

type ResultView struct {
	QuestionTitle   string
	AnswerText      string
	GrammarScore    int
	VocabularyScore int
	FluencyScore    int
	OverallScore    int
	CreatedAt       string
}

type ResultsViewData struct {
	Title     string
	User      *models.User
	Results   []ResultView
	CSRFToken string
}

type PracticeViewData struct {
	Title     string
	User      *models.User
	Category  *models.Category
	Question  *models.Question
	APIToken  string
	CSRFToken string
}

// attemptResponse is the practice API's JSON rendering of an attempt
// snapshot. Feedback scores are pointers so an absent score serializes as
// null rather than zero; the page shows those as unknown.
type attemptResponse struct {
	State      practice.State           `json:"state"`
	Transcript string                   `json:"transcript"`
	Feedback   *models.EvaluationResult `json:"feedback,omitempty"`
	Error      string                   `json:"error,omitempty"`
	SaveError  string                   `json:"save_error,omitempty"`
}

func newAttemptResponse(snapshot practice.Snapshot) attemptResponse {
	return attemptResponse{
		State:      snapshot.State,
		Transcript: snapshot.Transcript,
		Feedback:   snapshot.Feedback,
		Error:      snapshot.Error,
		SaveError:  snapshot.SaveError,
	}
}

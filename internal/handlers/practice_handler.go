package handlers

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"sync"

	"speakcoach/internal/practice"
	"speakcoach/internal/security"
	"speakcoach/internal/service"
	"speakcoach/internal/speech"
)

// PracticeHandler handles the practice screen and its JSON API. The page is
// rendered against a session cookie; the API the page's script talks to uses
// a short-lived bearer token embedded in the page.
type PracticeHandler struct {
	catalogService *service.CatalogService
	evaluator      practice.Evaluator
	saver          practice.ResultSaver
	tokens         *security.TokenManager
	templates      *template.Template

	mu       sync.Mutex
	attempts map[int64]*practice.Controller // keyed by user ID
}

// NewPracticeHandler creates a new practice handler
func NewPracticeHandler(catalogService *service.CatalogService, evaluator practice.Evaluator, saver practice.ResultSaver, tokens *security.TokenManager, templates *template.Template) *PracticeHandler {
	return &PracticeHandler{
		catalogService: catalogService,
		evaluator:      evaluator,
		saver:          saver,
		tokens:         tokens,
		templates:      templates,
		attempts:       make(map[int64]*practice.Controller),
	}
}

// ShowPractice renders the practice screen for a question, replacing any
// attempt the user already had open
func (h *PracticeHandler) ShowPractice(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	questionID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid question ID", "", err)
		return
	}

	question, err := h.catalogService.GetQuestion(questionID)
	if err == service.ErrQuestionNotFound {
		respondWithError(w, http.StatusNotFound, "Question not found", "", nil)
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "Error loading question", err)
		return
	}

	category, err := h.catalogService.GetCategory(question.CategoryID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "Error loading category", err)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "Error issuing API token", err)
		return
	}

	controller := practice.NewController(user.ID, *question, h.evaluator, h.saver)

	h.mu.Lock()
	if existing, ok := h.attempts[user.ID]; ok {
		existing.Close()
	}
	h.attempts[user.ID] = controller
	h.mu.Unlock()

	data := PracticeViewData{
		Title:     question.Title + " - SpeakCoach",
		User:      user,
		Category:  category,
		Question:  question,
		APIToken:  token,
		CSRFToken: GetCSRFTokenFromContext(r.Context()),
	}

	if err := h.templates.ExecuteTemplate(w, "practice.tmpl", data); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "Error rendering practice template", err)
	}
}

func (h *PracticeHandler) attempt(r *http.Request) (*practice.Controller, bool) {
	userID, ok := GetAPIUserIDFromContext(r.Context())
	if !ok {
		return nil, false
	}

	h.mu.Lock()
	controller, ok := h.attempts[userID]
	h.mu.Unlock()
	return controller, ok
}

// GetState returns the current attempt snapshot
func (h *PracticeHandler) GetState(w http.ResponseWriter, r *http.Request) {
	controller, ok := h.attempt(r)
	if !ok {
		respondWithJSONError(w, http.StatusNotFound, "no active practice attempt")
		return
	}
	respondWithJSON(w, http.StatusOK, newAttemptResponse(controller.Snapshot()))
}

// StartRecording begins speech capture. The browser reports whether its
// recognition engine is available; when it is not the attempt stays put and
// the error is shown inline.
func (h *PracticeHandler) StartRecording(w http.ResponseWriter, r *http.Request) {
	controller, ok := h.attempt(r)
	if !ok {
		respondWithJSONError(w, http.StatusNotFound, "no active practice attempt")
		return
	}

	var req struct {
		Supported bool `json:"supported"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := controller.StartRecording(&speech.BrowserRecognizer{Supported: req.Supported})
	h.respondAfter(w, controller, err)
}

// AddSegment appends a recognized speech segment to the transcript
func (h *PracticeHandler) AddSegment(w http.ResponseWriter, r *http.Request) {
	controller, ok := h.attempt(r)
	if !ok {
		respondWithJSONError(w, http.StatusNotFound, "no active practice attempt")
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	_, err := controller.AddSegment(req.Text)
	h.respondAfter(w, controller, err)
}

// StopRecording ends speech capture and moves the attempt to reviewing
func (h *PracticeHandler) StopRecording(w http.ResponseWriter, r *http.Request) {
	controller, ok := h.attempt(r)
	if !ok {
		respondWithJSONError(w, http.StatusNotFound, "no active practice attempt")
		return
	}

	controller.StopRecording()
	respondWithJSON(w, http.StatusOK, newAttemptResponse(controller.Snapshot()))
}

// EditTranscript replaces the transcript with manually entered text
func (h *PracticeHandler) EditTranscript(w http.ResponseWriter, r *http.Request) {
	controller, ok := h.attempt(r)
	if !ok {
		respondWithJSONError(w, http.StatusNotFound, "no active practice attempt")
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := controller.EditTranscript(req.Text)
	h.respondAfter(w, controller, err)
}

// Analyze submits the transcript for evaluation. Evaluation failures leave
// the attempt in reviewing with the error in the snapshot, so the response
// stays 200 and the page renders the retry state.
func (h *PracticeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	controller, ok := h.attempt(r)
	if !ok {
		respondWithJSONError(w, http.StatusNotFound, "no active practice attempt")
		return
	}

	err := controller.Analyze(r.Context())
	if err == practice.ErrAttemptClosed || err == practice.ErrAnalysisInFlight {
		h.respondAfter(w, controller, err)
		return
	}

	respondWithJSON(w, http.StatusOK, newAttemptResponse(controller.Snapshot()))
}

// Clear discards the transcript and feedback for a fresh attempt
func (h *PracticeHandler) Clear(w http.ResponseWriter, r *http.Request) {
	controller, ok := h.attempt(r)
	if !ok {
		respondWithJSONError(w, http.StatusNotFound, "no active practice attempt")
		return
	}

	err := controller.Clear()
	h.respondAfter(w, controller, err)
}

// Exit closes the attempt and releases it
func (h *PracticeHandler) Exit(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetAPIUserIDFromContext(r.Context())
	if !ok {
		respondWithJSONError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	h.mu.Lock()
	controller, exists := h.attempts[userID]
	delete(h.attempts, userID)
	h.mu.Unlock()

	if exists {
		controller.Close()
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// respondAfter maps a controller error to an HTTP status and responds with
// the current snapshot either way
func (h *PracticeHandler) respondAfter(w http.ResponseWriter, controller *practice.Controller, err error) {
	status := http.StatusOK
	switch err {
	case nil:
	case practice.ErrAttemptClosed:
		respondWithJSONError(w, http.StatusGone, err.Error())
		return
	case practice.ErrAlreadyRecording, practice.ErrAnalysisInFlight:
		status = http.StatusConflict
	case practice.ErrEmptyTranscript, speech.ErrUnsupportedPlatform:
		status = http.StatusBadRequest
	default:
		status = http.StatusBadRequest
	}

	response := newAttemptResponse(controller.Snapshot())
	if err != nil && response.Error == "" {
		response.Error = err.Error()
	}
	respondWithJSON(w, status, response)
}

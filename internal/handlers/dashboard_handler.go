package handlers

import (
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"speakcoach/internal/models"
	"speakcoach/internal/repository"
	"speakcoach/internal/service"
)

const recentResultsLimit = 20

// DashboardHandler handles the category and question browsing pages
type DashboardHandler struct {
	catalogService *service.CatalogService
	resultRepo     *repository.ResultRepository
	templates      *template.Template
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(catalogService *service.CatalogService, resultRepo *repository.ResultRepository, templates *template.Template) *DashboardHandler {
	return &DashboardHandler{
		catalogService: catalogService,
		resultRepo:     resultRepo,
		templates:      templates,
	}
}

// Dashboard renders the category grid
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	categories, err := h.catalogService.GetCategories()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "Error loading categories", err)
		return
	}

	data := CategoriesViewData{
		Title:      "Practice Topics - SpeakCoach",
		User:       user,
		Greeting:   fmt.Sprintf("Hello, %s!", user.DisplayName()),
		Categories: categories,
		CSRFToken:  GetCSRFTokenFromContext(r.Context()),
	}

	if err := h.templates.ExecuteTemplate(w, "categories.tmpl", data); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "Error rendering categories template", err)
	}
}

// ShowQuestions renders a category's question list
func (h *DashboardHandler) ShowQuestions(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	categoryID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid category ID", "", err)
		return
	}

	category, err := h.catalogService.GetCategory(categoryID)
	if err == service.ErrCategoryNotFound {
		respondWithError(w, http.StatusNotFound, "Category not found", "", nil)
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "Error loading category", err)
		return
	}

	questions, err := h.catalogService.GetQuestions(categoryID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "Error loading questions", err)
		return
	}

	data := QuestionsViewData{
		Title:     category.Name + " - SpeakCoach",
		User:      user,
		Category:  category,
		Questions: questions,
		CSRFToken: GetCSRFTokenFromContext(r.Context()),
	}

	if err := h.templates.ExecuteTemplate(w, "questions.tmpl", data); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "Error rendering questions template", err)
	}
}

// ShowResults renders the user's recent practice results
func (h *DashboardHandler) ShowResults(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	results, err := h.resultRepo.GetUserResults(user.ID, recentResultsLimit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "Error loading results", err)
		return
	}

	data := ResultsViewData{
		Title:     "My Results - SpeakCoach",
		User:      user,
		Results:   h.resultViews(results),
		CSRFToken: GetCSRFTokenFromContext(r.Context()),
	}

	if err := h.templates.ExecuteTemplate(w, "results.tmpl", data); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "Error rendering results template", err)
	}
}

func (h *DashboardHandler) resultViews(results []models.StoredResult) []ResultView {
	titles := make(map[int64]string)

	views := make([]ResultView, 0, len(results))
	for _, result := range results {
		title, ok := titles[result.QuestionID]
		if !ok {
			title = "Unknown question"
			if question, err := h.catalogService.GetQuestion(result.QuestionID); err == nil {
				title = question.Title
			}
			titles[result.QuestionID] = title
		}

		views = append(views, ResultView{
			QuestionTitle:   title,
			AnswerText:      result.AnswerText,
			GrammarScore:    result.GrammarScore,
			VocabularyScore: result.VocabularyScore,
			FluencyScore:    result.FluencyScore,
			OverallScore:    result.OverallScore,
			CreatedAt:       result.CreatedAt.Format("Jan 2, 2006 15:04"),
		})
	}
	return views
}

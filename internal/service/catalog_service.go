package service

import (
	"errors"
	"fmt"

	"speakcoach/internal/models"
	"speakcoach/internal/repository"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrQuestionNotFound = errors.New("question not found")
)

// CatalogService exposes the topic categories and practice questions
type CatalogService struct {
	catalogRepo *repository.CatalogRepository
}

// NewCatalogService creates a new catalog service
func NewCatalogService(catalogRepo *repository.CatalogRepository) *CatalogService {
	return &CatalogService{catalogRepo: catalogRepo}
}

// GetCategories returns all topic categories
func (s *CatalogService) GetCategories() ([]models.Category, error) {
	categories, err := s.catalogRepo.GetCategories()
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

// GetCategory returns a single category
func (s *CatalogService) GetCategory(categoryID int64) (*models.Category, error) {
	category, err := s.catalogRepo.GetCategoryByID(categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

// GetQuestions returns a category's questions ordered from easy to hard
func (s *CatalogService) GetQuestions(categoryID int64) ([]models.Question, error) {
	questions, err := s.catalogRepo.GetQuestionsByCategory(categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	return questions, nil
}

// GetQuestion returns a single question
func (s *CatalogService) GetQuestion(questionID int64) (*models.Question, error) {
	question, err := s.catalogRepo.GetQuestionByID(questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if question == nil {
		return nil, ErrQuestionNotFound
	}
	return question, nil
}

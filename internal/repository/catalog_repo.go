package repository

import (
	"database/sql"

	"speakcoach/internal/database"
	"speakcoach/internal/models"
)

// CatalogRepository handles read-only queries over the topic categories and
// practice questions reference data
type CatalogRepository struct {
	db *database.DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *database.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// GetCategories retrieves all categories ordered by name
func (r *CatalogRepository) GetCategories() ([]models.Category, error) {
	query := `
		SELECT id, name, icon, description
		FROM categories
		ORDER BY name ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var category models.Category
		err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Icon,
			&category.Description,
		)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}

	return categories, rows.Err()
}

// GetCategoryByID retrieves a single category, returning nil when not found
func (r *CatalogRepository) GetCategoryByID(categoryID int64) (*models.Category, error) {
	query := `
		SELECT id, name, icon, description
		FROM categories
		WHERE id = ?
	`

	category := &models.Category{}
	err := r.db.QueryRow(query, categoryID).Scan(
		&category.ID,
		&category.Name,
		&category.Icon,
		&category.Description,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return category, nil
}

// GetQuestionsByCategory retrieves a category's questions ordered from easy to hard
func (r *CatalogRepository) GetQuestionsByCategory(categoryID int64) ([]models.Question, error) {
	query := `
		SELECT id, category_id, title, question_text, tips, difficulty
		FROM questions
		WHERE category_id = ?
		ORDER BY CASE difficulty
			WHEN 'easy' THEN 1
			WHEN 'medium' THEN 2
			WHEN 'hard' THEN 3
			ELSE 4
		END, title ASC
	`

	rows, err := r.db.Query(query, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var question models.Question
		err := rows.Scan(
			&question.ID,
			&question.CategoryID,
			&question.Title,
			&question.QuestionText,
			&question.Tips,
			&question.Difficulty,
		)
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}

	return questions, rows.Err()
}

// GetQuestionByID retrieves a single question, returning nil when not found
func (r *CatalogRepository) GetQuestionByID(questionID int64) (*models.Question, error) {
	query := `
		SELECT id, category_id, title, question_text, tips, difficulty
		FROM questions
		WHERE id = ?
	`

	question := &models.Question{}
	err := r.db.QueryRow(query, questionID).Scan(
		&question.ID,
		&question.CategoryID,
		&question.Title,
		&question.QuestionText,
		&question.Tips,
		&question.Difficulty,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return question, nil
}

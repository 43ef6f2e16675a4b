package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"speakcoach/internal/database"
	"speakcoach/internal/models"
)

// ResultRepository persists evaluation outcomes. The results table is
// append-only: rows are inserted once and never updated or deleted.
type ResultRepository struct {
	db *database.DB
}

// NewResultRepository creates a new result repository
func NewResultRepository(db *database.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// storageScore flattens an optional score for the storage columns. Absent
// scores default to zero here and only here; the rendering layer shows
// missing scores as unknown instead.
func storageScore(score *int) int {
	if score == nil {
		return 0
	}
	return *score
}

// SaveResult inserts one evaluation outcome for a user and question. The
// full raw result is kept alongside the flattened scores for later audit.
func (r *ResultRepository) SaveResult(userID, questionID int64, transcript string, result *models.EvaluationResult) (*models.StoredResult, error) {
	feedback, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode feedback: %w", err)
	}

	stored := &models.StoredResult{
		UserID:          userID,
		QuestionID:      questionID,
		AnswerText:      transcript,
		GrammarScore:    storageScore(result.GrammarScore()),
		VocabularyScore: storageScore(result.VocabularyScore()),
		FluencyScore:    storageScore(result.FluencyScore()),
		OverallScore:    storageScore(result.OverallScore),
		Feedback:        string(feedback),
		CreatedAt:       time.Now(),
	}

	query := `
		INSERT INTO results (user_id, question_id, answer_text, grammar_score, vocabulary_score, fluency_score, overall_score, feedback)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	id, err := r.db.ExecReturningID(query,
		stored.UserID,
		stored.QuestionID,
		stored.AnswerText,
		stored.GrammarScore,
		stored.VocabularyScore,
		stored.FluencyScore,
		stored.OverallScore,
		stored.Feedback,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save result: %w", err)
	}

	stored.ID = id
	return stored, nil
}

// GetUserResults retrieves a user's most recent results, newest first
func (r *ResultRepository) GetUserResults(userID int64, limit int) ([]models.StoredResult, error) {
	query := `
		SELECT id, user_id, question_id, answer_text, grammar_score, vocabulary_score, fluency_score, overall_score, feedback, created_at
		FROM results
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.StoredResult
	for rows.Next() {
		var result models.StoredResult
		err := rows.Scan(
			&result.ID,
			&result.UserID,
			&result.QuestionID,
			&result.AnswerText,
			&result.GrammarScore,
			&result.VocabularyScore,
			&result.FluencyScore,
			&result.OverallScore,
			&result.Feedback,
			&result.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, rows.Err()
}

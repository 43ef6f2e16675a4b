package models

// Category represents a topic category. Read-only reference data.
type Category struct {
	ID          int64
	Name        string
	Icon        string
	Description string
}

// Question represents a spoken-English practice question. Read-only reference data.
type Question struct {
	ID           int64
	CategoryID   int64
	Title        string
	QuestionText string
	Tips         string
	Difficulty   string
}

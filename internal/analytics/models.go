// Package analytics records per-question outcomes of finished attempts and
// derives failure statistics and study plans from them.
package analytics

import (
	"time"

	"github.com/adriian-oc/oposiciones-app/internal/grading"
)

// QuestionOutcome is one graded question of a finished attempt.
type QuestionOutcome struct {
	QuestionID string
	ThemeID    string
	Selected   *int
	Correct    int
	Result     grading.Outcome
}

type ThemeStats struct {
	UserID         string    `json:"user_id"`
	ThemeID        string    `json:"theme_id"`
	TotalAttempted int       `json:"total_attempted"`
	Correct        int       `json:"correct"`
	Incorrect      int       `json:"incorrect"`
	Unanswered     int       `json:"unanswered"`
	AccuracyRate   float64   `json:"accuracy_rate"`
	LastUpdated    time.Time `json:"last_updated"`
}

type FailureSummary struct {
	Count        int
	LastFailedAt time.Time
}

type FailureAnalytics struct {
	ThemeID       string     `json:"theme_id"`
	ThemeName     string     `json:"theme_name"`
	ThemeCode     string     `json:"theme_code"`
	FailureCount  int        `json:"failure_count"`
	TotalAttempts int        `json:"total_attempts"`
	AccuracyRate  float64    `json:"accuracy_rate"`
	LastFailedAt  *time.Time `json:"last_failed_at"`
}

type StudyPlanItem struct {
	ThemeID                  string  `json:"theme_id"`
	ThemeName                string  `json:"theme_name"`
	ThemeCode                string  `json:"theme_code"`
	Priority                 int     `json:"priority"`
	FailureCount             int     `json:"failure_count"`
	AccuracyRate             float64 `json:"accuracy_rate"`
	RecommendedPracticeCount int     `json:"recommended_practice_count"`
}

type StudyPlan struct {
	UserID         string          `json:"user_id"`
	GeneratedAt    time.Time       `json:"generated_at"`
	Threshold      float64         `json:"threshold"`
	WeakThemes     []StudyPlanItem `json:"weak_themes"`
	TotalWeakAreas int             `json:"total_weak_areas"`
}

type OverallStats struct {
	UserID                 string  `json:"user_id"`
	TotalExamsCompleted    int     `json:"total_exams_completed"`
	TotalQuestionsAnswered int     `json:"total_questions_answered"`
	TotalCorrect           int     `json:"total_correct"`
	TotalIncorrect         int     `json:"total_incorrect"`
	TotalUnanswered        int     `json:"total_unanswered"`
	OverallAccuracy        float64 `json:"overall_accuracy"`
	AverageScore           float64 `json:"average_score"`
	BestScore              float64 `json:"best_score"`
	WeakThemesCount        int     `json:"weak_themes_count"`
}

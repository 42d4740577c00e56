package exam

import (
	"time"

	"github.com/adriian-oc/oposiciones-app/internal/grading"
)

type Type string

const (
	TypeTheoryTopic Type = "THEORY_TOPIC"
	TypeTheoryMixed Type = "THEORY_MIXED"
	TypePractical   Type = "PRACTICAL"
	TypeSimulacro   Type = "SIMULACRO"
)

func (t Type) Valid() bool {
	switch t {
	case TypeTheoryTopic, TypeTheoryMixed, TypePractical, TypeSimulacro:
		return true
	}
	return false
}

type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// QuestionSnapshot freezes a bank question at generation time.
type QuestionSnapshot struct {
	QuestionID    string   `json:"question_id"`
	ThemeID       string   `json:"theme_id"`
	Text          string   `json:"text"`
	Choices       []string `json:"choices"`
	CorrectAnswer int      `json:"correct_answer"`
}

type Exam struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Type      Type               `json:"type"`
	ThemeIDs  []string           `json:"theme_ids"`
	Questions []QuestionSnapshot `json:"questions"`
	CreatedBy string             `json:"created_by"`
	CreatedAt time.Time          `json:"created_at"`
}

func (e Exam) question(id string) (QuestionSnapshot, bool) {
	for _, q := range e.Questions {
		if q.QuestionID == id {
			return q, true
		}
	}
	return QuestionSnapshot{}, false
}

// QuestionView is a snapshot without its answer key.
type QuestionView struct {
	QuestionID string   `json:"question_id"`
	ThemeID    string   `json:"theme_id"`
	Text       string   `json:"text"`
	Choices    []string `json:"choices"`
}

type ExamView struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Type      Type           `json:"type"`
	ThemeIDs  []string       `json:"theme_ids"`
	Questions []QuestionView `json:"questions"`
	CreatedBy string         `json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
}

// Public strips answer keys.
func (e Exam) Public() ExamView {
	v := ExamView{
		ID: e.ID, Name: e.Name, Type: e.Type, ThemeIDs: e.ThemeIDs,
		CreatedBy: e.CreatedBy, CreatedAt: e.CreatedAt,
		Questions: make([]QuestionView, len(e.Questions)),
	}
	for i, q := range e.Questions {
		v.Questions[i] = QuestionView{QuestionID: q.QuestionID, ThemeID: q.ThemeID, Text: q.Text, Choices: q.Choices}
	}
	return v
}

type ExamSummary struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Type          Type      `json:"type"`
	ThemeIDs      []string  `json:"theme_ids"`
	QuestionCount int       `json:"question_count"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

func (e Exam) Summary() ExamSummary {
	return ExamSummary{
		ID: e.ID, Name: e.Name, Type: e.Type, ThemeIDs: e.ThemeIDs,
		QuestionCount: len(e.Questions), CreatedBy: e.CreatedBy, CreatedAt: e.CreatedAt,
	}
}

type Attempt struct {
	ID         string             `json:"id"`
	ExamID     string             `json:"exam_id"`
	UserID     string             `json:"user_id"`
	Status     Status             `json:"status"`
	Answers    map[string]int     `json:"answers"` // question id -> choice index
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt *time.Time         `json:"finished_at"`
	Score      *float64           `json:"score"`
	Breakdown  *grading.Breakdown `json:"-"`
}

// StartedAttempt is returned when an attempt begins.
type StartedAttempt struct {
	Attempt
	Exam ExamView `json:"exam"`
}

// QuestionResult is one row of an attempt's results. Correctness fields
// stay nil until the attempt is completed.
type QuestionResult struct {
	QuestionID     string           `json:"question_id"`
	ThemeID        string           `json:"theme_id"`
	QuestionText   string           `json:"question_text"`
	Choices        []string         `json:"choices"`
	SelectedAnswer *int             `json:"selected_answer"`
	CorrectAnswer  *int             `json:"correct_answer"`
	IsCorrect      *bool            `json:"is_correct"`
	Status         *grading.Outcome `json:"status"`
}

type Details struct {
	TotalQuestions int              `json:"total_questions"`
	Answered       int              `json:"answered"`
	Correct        *int             `json:"correct"`
	Incorrect      *int             `json:"incorrect"`
	Unanswered     *int             `json:"unanswered"`
	RawScore       *float64         `json:"raw_score"`
	FinalScore     *float64         `json:"final_score"`
	MaxScore       float64          `json:"max_score"`
	PassScore      float64          `json:"pass_score"`
	Passed         *bool            `json:"passed"`
	Results        []QuestionResult `json:"results"`
}

type Results struct {
	Attempt
	ExamName string  `json:"exam_name"`
	ExamType Type    `json:"exam_type"`
	Details  Details `json:"details"`
}

type AttemptSummary struct {
	AttemptID     string     `json:"attempt_id"`
	ExamID        string     `json:"exam_id"`
	ExamName      string     `json:"exam_name"`
	ExamType      Type       `json:"exam_type"`
	Status        Status     `json:"status"`
	QuestionCount int        `json:"question_count"`
	Score         *float64   `json:"score"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at"`
}

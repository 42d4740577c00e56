package catalog

import "time"

type Part string

const (
	PartGeneral  Part = "GENERAL"
	PartSpecific Part = "SPECIFIC"
)

func (p Part) Valid() bool { return p == PartGeneral || p == PartSpecific }

type Theme struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Part      Part      `json:"part"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
}

type Question struct {
	ID            string    `json:"id"`
	ThemeID       string    `json:"theme_id"`
	Text          string    `json:"text"`
	Choices       []string  `json:"choices"`
	CorrectAnswer int       `json:"correct_answer"`
	Difficulty    string    `json:"difficulty,omitempty"` // EASY|MEDIUM|HARD
	Tags          []string  `json:"tags"`
	CreatedBy     string    `json:"created_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type QuestionInput struct {
	ThemeID       string   `json:"theme_id"`
	Text          string   `json:"text"`
	Choices       []string `json:"choices"`
	CorrectAnswer int      `json:"correct_answer"`
	Difficulty    string   `json:"difficulty,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

type QuestionFilter struct {
	ThemeID string
	Limit   int
	Skip    int
}

// PracticalSetSize is the fixed number of questions of a practical case.
const PracticalSetSize = 15

type PracticalQuestion struct {
	ID            string   `json:"id"`
	Position      int      `json:"position"`
	Text          string   `json:"text"`
	Choices       []string `json:"choices"`
	CorrectAnswer int      `json:"correct_answer"`
}

type PracticalSet struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	ThemeIDs    []string            `json:"theme_ids"`
	Questions   []PracticalQuestion `json:"questions"`
	CreatedBy   string              `json:"created_by"`
	CreatedAt   time.Time           `json:"created_at"`
}

type PracticalSetSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ThemeIDs      []string  `json:"theme_ids"`
	QuestionCount int       `json:"question_count"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

func (p PracticalSet) Summary() PracticalSetSummary {
	return PracticalSetSummary{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		ThemeIDs:      p.ThemeIDs,
		QuestionCount: len(p.Questions),
		CreatedBy:     p.CreatedBy,
		CreatedAt:     p.CreatedAt,
	}
}

type PracticalSetInput struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	ThemeIDs    []string            `json:"theme_ids"`
	Questions   []PracticalQuestion `json:"questions"`
}

package grading

import "math"

// Outcome classifies a single question of a finished attempt.
type Outcome string

const (
	Correct    Outcome = "correct"
	Incorrect  Outcome = "incorrect"
	Unanswered Outcome = "unanswered"
)

// Classify compares a selected choice (nil when unanswered) against the key.
func Classify(selected *int, correct int) Outcome {
	switch {
	case selected == nil:
		return Unanswered
	case *selected == correct:
		return Correct
	default:
		return Incorrect
	}
}

// Tally counts outcomes across an attempt.
type Tally struct {
	Correct    int
	Incorrect  int
	Unanswered int
}

func (t *Tally) Add(o Outcome) {
	switch o {
	case Correct:
		t.Correct++
	case Incorrect:
		t.Incorrect++
	default:
		t.Unanswered++
	}
}

func (t Tally) Total() int { return t.Correct + t.Incorrect + t.Unanswered }

// Breakdown is the persisted score of a completed attempt.
type Breakdown struct {
	TotalQuestions int     `json:"total_questions"`
	Correct        int     `json:"correct"`
	Incorrect      int     `json:"incorrect"`
	Unanswered     int     `json:"unanswered"`
	RawScore       float64 `json:"raw_score"`
	FinalScore     float64 `json:"final_score"`
	MaxScore       float64 `json:"max_score"`
	PassScore      float64 `json:"pass_score"`
	Passed         bool    `json:"passed"`
}

// Formula maps a tally to a score on [0, maxScore]. Results outside the range are clamped.
type Formula func(t Tally, maxScore float64) (raw, final float64)

// Scorer turns a tally into a Breakdown.
type Scorer interface {
	Score(t Tally) Breakdown
	MaxScore() float64
}

type Option func(*config)

type config struct {
	MaxScore          float64
	CorrectWeight     float64
	IncorrectPenalty  float64
	UnansweredPenalty float64
	PassRatio         float64
	Formula           Formula
}

func WithMaxScore(v float64) Option          { return func(c *config) { c.MaxScore = v } }
func WithCorrectWeight(v float64) Option     { return func(c *config) { c.CorrectWeight = v } }
func WithIncorrectPenalty(v float64) Option  { return func(c *config) { c.IncorrectPenalty = v } }
func WithUnansweredPenalty(v float64) Option { return func(c *config) { c.UnansweredPenalty = v } }
func WithPassRatio(v float64) Option         { return func(c *config) { c.PassRatio = v } }

// WithFormula replaces the weighted formula entirely.
func WithFormula(f Formula) Option { return func(c *config) { c.Formula = f } }

type defaultScorer struct{ cfg config }

// NewScorer defaults to +1 correct, -0.25 incorrect, 0 unanswered, scaled to 70, pass at 50%.
func NewScorer(opts ...Option) Scorer {
	cfg := config{
		MaxScore:         70,
		CorrectWeight:    1,
		IncorrectPenalty: 0.25,
		PassRatio:        0.5,
	}
	for _, o := range opts {
		o(&cfg)
	}
	// Negative penalties would break monotonicity.
	cfg.IncorrectPenalty = math.Abs(cfg.IncorrectPenalty)
	cfg.UnansweredPenalty = math.Abs(cfg.UnansweredPenalty)
	if cfg.CorrectWeight <= 0 {
		cfg.CorrectWeight = 1
	}
	if cfg.MaxScore <= 0 {
		cfg.MaxScore = 70
	}
	if cfg.Formula == nil {
		cfg.Formula = weighted(cfg)
	}
	return &defaultScorer{cfg: cfg}
}

func weighted(cfg config) Formula {
	return func(t Tally, maxScore float64) (float64, float64) {
		total := t.Total()
		if total == 0 {
			return 0, 0
		}
		raw := float64(t.Correct)*cfg.CorrectWeight -
			float64(t.Incorrect)*cfg.IncorrectPenalty -
			float64(t.Unanswered)*cfg.UnansweredPenalty
		raw = math.Max(raw, 0)
		return raw, raw / (float64(total) * cfg.CorrectWeight) * maxScore
	}
}

func (s *defaultScorer) MaxScore() float64 { return s.cfg.MaxScore }

func (s *defaultScorer) Score(t Tally) Breakdown {
	raw, final := s.cfg.Formula(t, s.cfg.MaxScore)
	final = Round2(math.Min(math.Max(final, 0), s.cfg.MaxScore))
	pass := Round2(s.cfg.PassRatio * s.cfg.MaxScore)
	return Breakdown{
		TotalQuestions: t.Total(),
		Correct:        t.Correct,
		Incorrect:      t.Incorrect,
		Unanswered:     t.Unanswered,
		RawScore:       Round2(raw),
		FinalScore:     final,
		MaxScore:       s.cfg.MaxScore,
		PassScore:      pass,
		Passed:         t.Total() > 0 && final >= pass,
	}
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 { return math.Round(v*100) / 100 }

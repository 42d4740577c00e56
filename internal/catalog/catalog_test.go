package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/adriian-oc/oposiciones-app/internal/apperr"
	"github.com/adriian-oc/oposiciones-app/internal/db/dbtest"
)

func seeded(t *testing.T) (*Store, []Theme) {
	t.Helper()
	s := NewStore(dbtest.Open(t))
	n, err := s.SeedThemes(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 36 {
		t.Fatalf("seeded %d themes, want 36", n)
	}
	themes, err := s.ListThemes(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	return s, themes
}

func sampleQuestion(themeID string, i int) QuestionInput {
	return QuestionInput{
		ThemeID:       themeID,
		Text:          fmt.Sprintf("Question %d?", i),
		Choices:       []string{"a", "b", "c", "d"},
		CorrectAnswer: i % 4,
	}
}

func TestSeedThemes(t *testing.T) {
	s, themes := seeded(t)
	ctx := context.Background()

	if themes[0].Code != "GENERAL_01" || themes[0].Order != 1 {
		t.Fatalf("first theme = %+v", themes[0])
	}
	last := themes[len(themes)-1]
	if last.Code != "SPECIFIC_13" || last.Order != 36 || last.Part != PartSpecific {
		t.Fatalf("last theme = %+v", last)
	}
	gen, err := s.ListThemes(ctx, PartGeneral)
	if err != nil || len(gen) != 23 {
		t.Fatalf("general = %d, %v", len(gen), err)
	}
	if _, err := s.ListThemes(ctx, Part("OTHER")); !apperr.Is(err, apperr.InvalidArgument) {
		t.Fatalf("bad part err = %v", err)
	}
	if n, err := s.SeedThemes(ctx); err != nil || n != 0 {
		t.Fatalf("reseed = %d, %v", n, err)
	}
}

func TestCreateTheme(t *testing.T) {
	s, _ := seeded(t)
	ctx := context.Background()
	th, err := s.CreateTheme(ctx, ThemeInput{Code: "specific_14", Name: "Extra", Part: PartSpecific, Order: 37})
	if err != nil {
		t.Fatal(err)
	}
	if th.Code != "SPECIFIC_14" {
		t.Fatalf("code = %q", th.Code)
	}
	if _, err := s.CreateTheme(ctx, ThemeInput{Code: "SPECIFIC_14", Name: "Dup", Part: PartSpecific}); !apperr.Is(err, apperr.Conflict) {
		t.Fatalf("duplicate err = %v", err)
	}
	got, err := s.GetTheme(ctx, th.ID)
	if err != nil || got.Name != "Extra" {
		t.Fatalf("get = %+v, %v", got, err)
	}
	if _, err := s.GetTheme(ctx, "missing"); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("missing err = %v", err)
	}
}

func TestQuestionCRUD(t *testing.T) {
	s, themes := seeded(t)
	ctx := context.Background()

	q, err := s.CreateQuestion(ctx, sampleQuestion(themes[0].ID, 1), "curator-1")
	if err != nil {
		t.Fatal(err)
	}
	bad := sampleQuestion(themes[0].ID, 2)
	bad.CorrectAnswer = 4
	if _, err := s.CreateQuestion(ctx, bad, "curator-1"); !apperr.Is(err, apperr.InvalidArgument) {
		t.Fatalf("out of range answer err = %v", err)
	}
	bad = sampleQuestion("nope", 3)
	if _, err := s.CreateQuestion(ctx, bad, "curator-1"); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("unknown theme err = %v", err)
	}

	in := sampleQuestion("", 1)
	in.Text = "Edited?"
	in.Difficulty = "hard"
	up, err := s.UpdateQuestion(ctx, q.ID, in)
	if err != nil {
		t.Fatal(err)
	}
	if up.Text != "Edited?" || up.Difficulty != "HARD" || up.ThemeID != themes[0].ID {
		t.Fatalf("updated = %+v", up)
	}

	list, err := s.ListQuestions(ctx, QuestionFilter{ThemeID: themes[0].ID})
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %d, %v", len(list), err)
	}
	if err := s.DeleteQuestion(ctx, q.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteQuestion(ctx, q.ID); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("double delete err = %v", err)
	}
	if list, _ := s.ListQuestions(ctx, QuestionFilter{}); len(list) != 0 {
		t.Fatalf("deleted question still listed: %d", len(list))
	}
}

func TestImportQuestionsIsAtomic(t *testing.T) {
	s, themes := seeded(t)
	ctx := context.Background()
	doc := BulkUpload{ThemeCode: themes[1].Code}
	for i := 0; i < 3; i++ {
		doc.Questions = append(doc.Questions, sampleQuestion("", i))
	}
	n, err := s.ImportQuestions(ctx, doc, "admin")
	if err != nil || n != 3 {
		t.Fatalf("import = %d, %v", n, err)
	}

	doc.Questions[2].Choices = []string{"only one"}
	if _, err := s.ImportQuestions(ctx, doc, "admin"); !apperr.Is(err, apperr.InvalidArgument) {
		t.Fatalf("bad import err = %v", err)
	}
	list, _ := s.ListQuestions(ctx, QuestionFilter{ThemeID: themes[1].ID})
	if len(list) != 3 {
		t.Fatalf("partial import leaked rows: %d", len(list))
	}
	if _, err := s.ImportQuestions(ctx, BulkUpload{ThemeCode: "NOPE_01", Questions: doc.Questions}, "admin"); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("unknown theme code err = %v", err)
	}
}

func TestRandomQuestions(t *testing.T) {
	s, themes := seeded(t)
	ctx := context.Background()
	for i := 0; i < 6; i++ {
		if _, err := s.CreateQuestion(ctx, sampleQuestion(themes[i%2].ID, i), "c"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.CreateQuestion(ctx, sampleQuestion(themes[5].ID, 99), "c"); err != nil {
		t.Fatal(err)
	}

	got, err := s.RandomQuestions(ctx, []string{themes[0].ID, themes[1].ID}, 6)
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]bool{}
	for _, q := range got {
		if q.ThemeID != themes[0].ID && q.ThemeID != themes[1].ID {
			t.Fatalf("question from foreign theme %s", q.ThemeID)
		}
		if seen[q.ID] {
			t.Fatalf("duplicate question %s", q.ID)
		}
		seen[q.ID] = true
	}

	_, err = s.RandomQuestions(ctx, []string{themes[0].ID}, 4)
	if !apperr.Is(err, apperr.InvalidArgument) {
		t.Fatalf("short bank err = %v", err)
	}
	if want := "Not enough questions available. Found 3, requested 4"; err.(*apperr.Error).Detail != want {
		t.Fatalf("detail = %q", err.(*apperr.Error).Detail)
	}
}

func practicalInput(themeIDs ...string) PracticalSetInput {
	in := PracticalSetInput{Title: "Caso práctico", ThemeIDs: themeIDs}
	for i := PracticalSetSize; i >= 1; i-- {
		in.Questions = append(in.Questions, PracticalQuestion{
			Position: i, Text: fmt.Sprintf("Q%d", i), Choices: []string{"x", "y", "z"}, CorrectAnswer: i % 3,
		})
	}
	return in
}

func TestPracticalSets(t *testing.T) {
	s, themes := seeded(t)
	ctx := context.Background()

	ps, err := s.CreatePracticalSet(ctx, practicalInput(themes[30].ID, themes[31].ID), "curator")
	if err != nil {
		t.Fatal(err)
	}
	if ps.Questions[0].Position != 1 || ps.Questions[0].ID == "" {
		t.Fatalf("questions not ordered/identified: %+v", ps.Questions[0])
	}

	same := practicalInput(themes[30].ID)
	for i := range same.Questions {
		same.Questions[i].ID = "same"
	}
	ps2, err := s.CreatePracticalSet(ctx, same, "curator")
	if err != nil {
		t.Fatal(err)
	}
	ids := map[string]bool{}
	for _, q := range ps2.Questions {
		if q.ID == "same" || ids[q.ID] {
			t.Fatalf("client question id kept or repeated: %q", q.ID)
		}
		ids[q.ID] = true
	}
	if err := s.DeletePracticalSet(ctx, ps2.ID); err != nil {
		t.Fatal(err)
	}

	short := practicalInput(themes[30].ID)
	short.Questions = short.Questions[:14]
	if _, err := s.CreatePracticalSet(ctx, short, "curator"); !apperr.Is(err, apperr.InvalidArgument) {
		t.Fatalf("14 questions err = %v", err)
	}
	dup := practicalInput(themes[30].ID)
	dup.Questions[1].Position = dup.Questions[0].Position
	if _, err := s.CreatePracticalSet(ctx, dup, "curator"); !apperr.Is(err, apperr.InvalidArgument) {
		t.Fatalf("duplicate position err = %v", err)
	}

	got, err := s.GetPracticalSet(ctx, ps.ID)
	if err != nil || len(got.ThemeIDs) != 2 || got.ThemeIDs[0] != themes[30].ID {
		t.Fatalf("get = %+v, %v", got.ThemeIDs, err)
	}
	by, err := s.PracticalSetsByTheme(ctx, themes[31].ID)
	if err != nil || len(by) != 1 {
		t.Fatalf("by theme = %d, %v", len(by), err)
	}
	r, err := s.RandomPracticalSet(ctx, []string{themes[31].ID})
	if err != nil || r.ID != ps.ID {
		t.Fatalf("random = %v, %v", r.ID, err)
	}
	if _, err := s.RandomPracticalSet(ctx, []string{themes[0].ID}); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("random without match err = %v", err)
	}

	if err := s.DeletePracticalSet(ctx, ps.ID); err != nil {
		t.Fatal(err)
	}
	if list, _ := s.ListPracticalSets(ctx, 0, 10); len(list) != 0 {
		t.Fatalf("deleted set listed")
	}
	if _, err := s.GetPracticalSet(ctx, ps.ID); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("get deleted err = %v", err)
	}
}

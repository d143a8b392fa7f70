package bank

import (
	"context"
	"testing"

	"quizbank/internal/db"
	"quizbank/internal/db/dbtest"
	"quizbank/internal/question"
)

func TestPostgresBankIntegration(t *testing.T) {
	dsn := dbtest.PostgresDSN(t)
	ctx := context.Background()

	conn, err := db.Open(ctx, db.DriverPostgres, dsn, db.DefaultPoolConfig())
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer conn.Close()
	if err := db.EnsureSchema(ctx, conn, db.DriverPostgres); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if _, err := conn.ExecContext(ctx, `TRUNCATE questions, options, match_pairs RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("reset tables: %v", err)
	}

	svc := NewService(conn, db.DriverPostgres)
	if _, err := svc.ImportRecords(ctx, sampleRecords()); err != nil {
		t.Fatalf("import: %v", err)
	}

	// explicit ids must not collide with later generated ones
	extra := question.RawQuestionRecord{
		KindLabel: "MCQ", Prompt: "Generated id", Topic: "Leadership",
		Options: []question.OptionRecord{{Text: "x", IsCorrect: true}, {Text: "y"}},
	}
	ids, err := svc.ImportRecords(ctx, []question.RawQuestionRecord{extra})
	if err != nil {
		t.Fatalf("import generated: %v", err)
	}
	if ids[0] <= 3 {
		t.Fatalf("expected generated id after 3, got %d", ids[0])
	}

	got, err := svc.LoadRecords(ctx, Filter{Topics: []string{"Leadership"}, KindLabels: []string{"mcq"}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].ID != 2 || !got[0].Options[1].IsCorrect {
		t.Fatalf("unexpected filtered records %+v", got)
	}

	found, err := svc.SearchRecords(ctx, "capitals")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 || len(found[0].Pairs) != 2 {
		t.Fatalf("expected matching record with pairs, got %+v", found)
	}

	ov, err := svc.Overview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if ov.Questions != 4 {
		t.Fatalf("expected 4 questions, got %d", ov.Questions)
	}
}

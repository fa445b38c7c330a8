package store_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"ai-grader/api/internal/evaluation"
	"ai-grader/api/internal/store"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := store.Open(context.Background(), store.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func record(id, assignment, ts string, p float64) evaluation.Record {
	return evaluation.Record{
		ID:           id,
		StudentName:  "student-" + id,
		AssignmentID: assignment,
		Data: evaluation.Data{
			TotalMarks:       10,
			ObtainedMarks:    int(p / 10),
			Percentage:       p,
			Grade:            evaluation.GradeFor(p),
			CorrectAnswers:   []string{"Q1", "Q2"},
			IncorrectAnswers: []string{},
			Strengths:        []string{"clarity"},
			DetailedFeedback: "feedback " + id,
		}.WithDefaults(),
		Timestamp:      ts,
		EvaluationType: evaluation.TypeSingle,
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	db := openDB(t)
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	again, err := store.Open(context.Background(), store.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	_ = again.Close()
	if err := db.Ping(); err != nil {
		t.Fatal(err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := store.Open(context.Background(), store.Driver("mysql"), "x"); err == nil {
		t.Fatal("want error for unsupported driver")
	}
}

func TestEvaluationRepoRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := store.NewEvaluationRepo(openDB(t))

	in := record("e1", "hw1", "2026-01-01T10:00:00.000000Z", 85.5)
	in.BatchID = "b1"
	in.EvaluationType = evaluation.TypeMultiple
	if err := repo.Insert(ctx, in); err != nil {
		t.Fatal(err)
	}

	got, err := repo.Get(ctx, "e1")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != in.ID || got.StudentName != in.StudentName || got.AssignmentID != "hw1" || got.BatchID != "b1" {
		t.Fatalf("identity: %+v", got)
	}
	if got.Percentage != 85.5 || got.Grade != "B" || got.TotalMarks != 10 || got.ObtainedMarks != 8 {
		t.Fatalf("scores: %+v", got)
	}
	if len(got.CorrectAnswers) != 2 || got.CorrectAnswers[1] != "Q2" || len(got.Strengths) != 1 {
		t.Fatalf("lists: %+v", got)
	}
	if got.PartialCreditAreas == nil || len(got.IncorrectAnswers) != 0 {
		t.Fatalf("empty lists: %#v %#v", got.PartialCreditAreas, got.IncorrectAnswers)
	}
	if got.EvaluationType != evaluation.TypeMultiple || got.Timestamp != in.Timestamp || got.DetailedFeedback != "feedback e1" {
		t.Fatalf("meta: %+v", got)
	}
}

func TestEvaluationRepoDuplicateID(t *testing.T) {
	ctx := context.Background()
	repo := store.NewEvaluationRepo(openDB(t))
	r := record("dup", "hw1", "2026-01-01T10:00:00.000000Z", 50)
	if err := repo.Insert(ctx, r); err != nil {
		t.Fatal(err)
	}
	if err := repo.Insert(ctx, r); err == nil {
		t.Fatal("records are write-once: duplicate id must fail")
	}
}

func TestEvaluationRepoNotFound(t *testing.T) {
	repo := store.NewEvaluationRepo(openDB(t))
	if _, err := repo.Get(context.Background(), "missing"); !errors.Is(err, evaluation.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestListByAssignment(t *testing.T) {
	ctx := context.Background()
	repo := store.NewEvaluationRepo(openDB(t))
	for _, r := range []evaluation.Record{
		record("c", "hw1", "2026-01-01T10:00:02.000000Z", 70),
		record("a", "hw1", "2026-01-01T10:00:00.000000Z", 90),
		record("x", "hw2", "2026-01-01T10:00:01.000000Z", 60),
		record("b", "hw1", "2026-01-01T10:00:01.000000Z", 80),
	} {
		if err := repo.Insert(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.ListByAssignment(ctx, "hw1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0].ID != "a" || got[1].ID != "b" || got[2].ID != "c" {
		t.Fatalf("order: %+v", got)
	}

	none, err := repo.ListByAssignment(ctx, "nope")
	if err != nil {
		t.Fatal(err)
	}
	if none == nil || len(none) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", none)
	}
}

func TestBatchRepo(t *testing.T) {
	ctx := context.Background()
	repo := store.NewBatchRepo(openDB(t))

	b := evaluation.Batch{
		ID:                   "b1",
		AssignmentID:         "hw1",
		TotalSubmissions:     3,
		CompletedEvaluations: 2,
		Status:               evaluation.BatchPartial,
		Summary: evaluation.Summary{
			AveragePercentage: 75,
			GradeDistribution: map[string]int{"B": 1, "D": 1},
			HighestScore:      85,
			LowestScore:       65,
		},
		CreatedAt:   "2026-01-01T10:00:00.000000Z",
		CompletedAt: "2026-01-01T10:01:00.000000Z",
	}
	if err := repo.Insert(ctx, b); err != nil {
		t.Fatal(err)
	}
	got, err := repo.Get(ctx, "b1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != evaluation.BatchPartial || got.CompletedEvaluations != 2 || got.TotalSubmissions != 3 {
		t.Fatalf("batch: %+v", got)
	}
	if got.Summary.AveragePercentage != 75 || got.Summary.GradeDistribution["D"] != 1 || got.CompletedAt != b.CompletedAt {
		t.Fatalf("summary: %+v", got.Summary)
	}

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, evaluation.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

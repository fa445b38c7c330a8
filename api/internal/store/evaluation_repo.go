package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"ai-grader/api/internal/evaluation"
)

type EvaluationRepo struct{ DB *sql.DB }

func NewEvaluationRepo(db *sql.DB) *EvaluationRepo { return &EvaluationRepo{DB: db} }

const evaluationColumns = `id, assignment_id, coalesce(batch_id,'') as batch_id, student_name,
       total_marks, obtained_marks, percentage, grade,
       correct_answers, incorrect_answers, partial_credit_areas, strengths, areas_for_improvement,
       detailed_feedback, evaluation_type, created_at`

// Insert writes one immutable evaluation row keyed by rec.ID.
func (r *EvaluationRepo) Insert(ctx context.Context, rec evaluation.Record) error {
	lists := make([]string, 0, 5)
	for _, l := range [][]string{
		rec.CorrectAnswers, rec.IncorrectAnswers, rec.PartialCreditAreas,
		rec.Strengths, rec.AreasForImprovement,
	} {
		lists = append(lists, encodeList(l))
	}
	var batchID sql.NullString
	if rec.BatchID != "" {
		batchID = sql.NullString{String: rec.BatchID, Valid: true}
	}

	const q = `
insert into evaluations (
  id, assignment_id, batch_id, student_name,
  total_marks, obtained_marks, percentage, grade,
  correct_answers, incorrect_answers, partial_credit_areas, strengths, areas_for_improvement,
  detailed_feedback, evaluation_type, created_at
) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`
	_, err := r.DB.ExecContext(ctx, q,
		rec.ID, rec.AssignmentID, batchID, rec.StudentName,
		rec.TotalMarks, rec.ObtainedMarks, rec.Percentage, rec.Grade,
		lists[0], lists[1], lists[2], lists[3], lists[4],
		rec.DetailedFeedback, string(rec.EvaluationType), rec.Timestamp,
	)
	return err
}

// Get returns evaluation.ErrNotFound when no row has the id.
func (r *EvaluationRepo) Get(ctx context.Context, id string) (evaluation.Record, error) {
	row := r.DB.QueryRowContext(ctx, `select `+evaluationColumns+` from evaluations where id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return evaluation.Record{}, evaluation.ErrNotFound
	}
	return rec, err
}

// ListByAssignment returns every stored evaluation of an assignment, oldest
// first.
func (r *EvaluationRepo) ListByAssignment(ctx context.Context, assignmentID string) ([]evaluation.Record, error) {
	rows, err := r.DB.QueryContext(ctx,
		`select `+evaluationColumns+` from evaluations where assignment_id = $1 order by created_at, id`,
		assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []evaluation.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (evaluation.Record, error) {
	var rec evaluation.Record
	var correct, incorrect, partial, strengths, areas, typ string
	if err := s.Scan(
		&rec.ID, &rec.AssignmentID, &rec.BatchID, &rec.StudentName,
		&rec.TotalMarks, &rec.ObtainedMarks, &rec.Percentage, &rec.Grade,
		&correct, &incorrect, &partial, &strengths, &areas,
		&rec.DetailedFeedback, &typ, &rec.Timestamp,
	); err != nil {
		return evaluation.Record{}, err
	}
	rec.CorrectAnswers = decodeList(correct)
	rec.IncorrectAnswers = decodeList(incorrect)
	rec.PartialCreditAreas = decodeList(partial)
	rec.Strengths = decodeList(strengths)
	rec.AreasForImprovement = decodeList(areas)
	rec.EvaluationType = evaluation.Type(typ)
	return rec, nil
}

func encodeList(l []string) string {
	if l == nil {
		return "[]"
	}
	js, _ := json.Marshal(l)
	return string(js)
}

// decodeList treats a broken column as empty rather than failing the read.
func decodeList(s string) []string {
	var l []string
	if err := json.Unmarshal([]byte(s), &l); err != nil || l == nil {
		return []string{}
	}
	return l
}

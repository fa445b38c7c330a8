package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"ai-grader/api/internal/evaluation"
)

type BatchRepo struct{ DB *sql.DB }

func NewBatchRepo(db *sql.DB) *BatchRepo { return &BatchRepo{DB: db} }

// Insert stores the audit row of a finished batch.
func (r *BatchRepo) Insert(ctx context.Context, b evaluation.Batch) error {
	js, err := json.Marshal(b.Summary)
	if err != nil {
		return err
	}
	const q = `
insert into evaluation_batches (
  id, assignment_id, total_submissions, completed_evaluations, status, summary, created_at, completed_at
) values ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err = r.DB.ExecContext(ctx, q,
		b.ID, b.AssignmentID, b.TotalSubmissions, b.CompletedEvaluations,
		string(b.Status), string(js), b.CreatedAt, b.CompletedAt,
	)
	return err
}

// Get returns evaluation.ErrNotFound when no batch has the id.
func (r *BatchRepo) Get(ctx context.Context, id string) (evaluation.Batch, error) {
	const q = `
select id, assignment_id, total_submissions, completed_evaluations, status, summary,
       created_at, coalesce(completed_at,'') as completed_at
from evaluation_batches
where id = $1`
	var (
		b      evaluation.Batch
		status string
		js     string
	)
	err := r.DB.QueryRowContext(ctx, q, id).Scan(
		&b.ID, &b.AssignmentID, &b.TotalSubmissions, &b.CompletedEvaluations,
		&status, &js, &b.CreatedAt, &b.CompletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return evaluation.Batch{}, evaluation.ErrNotFound
	}
	if err != nil {
		return evaluation.Batch{}, err
	}
	b.Status = evaluation.BatchStatus(status)
	if err := json.Unmarshal([]byte(js), &b.Summary); err != nil {
		b.Summary = evaluation.Summary{}
	}
	if b.Summary.GradeDistribution == nil {
		b.Summary.GradeDistribution = map[string]int{}
	}
	return b, nil
}

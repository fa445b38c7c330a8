package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"ai-grader/api/internal/evaluation"
	"ai-grader/api/internal/util"
)

const notifyTimeout = 10 * time.Second

type itemStatus int

const (
	itemPersisted itemStatus = iota
	itemSkipped
	itemFailed
)

type itemOutcome struct {
	status itemStatus
	record evaluation.Record
	err    error
}

// EvaluateBatch grades every student response against one answer key.
// A submission that is empty is skipped and one that fails is logged and
// dropped; neither stops the rest of the batch. The call only fails as a
// whole when the answer key is unusable or nothing could be persisted.
func (s *Service) EvaluateBatch(ctx context.Context, answerKey evaluation.Upload, students []evaluation.Upload, assignmentID string) (evaluation.BatchResult, error) {
	key, err := evaluation.NewFile("answer_key", answerKey)
	if err != nil {
		return evaluation.BatchResult{}, err
	}
	if len(students) == 0 {
		return evaluation.BatchResult{}, &evaluation.InvalidInputError{Field: "student_responses", Reason: "at least one file is required"}
	}
	if assignmentID == "" {
		assignmentID = DefaultAssignmentID
	}

	batchID := s.newID()
	startedAt := s.timestamp()
	l := s.log.With().Str("assignment_id", assignmentID).Str("batch_id", batchID).Logger()
	l.Info().Int("submissions", len(students)).Int("concurrency", s.concurrency).Msg("batch started")

	// Each worker owns its slot, so results keep the input order.
	outcomes := make([]itemOutcome, len(students))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, up := range students {
		g.Go(func() error {
			outcomes[i] = s.evaluateItem(ctx, &l, key, up, assignmentID, batchID)
			return nil
		})
	}
	_ = g.Wait()

	res := evaluation.BatchResult{
		ID:           batchID,
		AssignmentID: assignmentID,
		Results:      []evaluation.Record{},
	}
	for _, o := range outcomes {
		switch o.status {
		case itemPersisted:
			res.Results = append(res.Results, o.record)
		case itemSkipped:
			res.Skipped++
		case itemFailed:
			res.Failed++
		}
	}
	res.TotalStudents = len(res.Results)
	res.Summary = evaluation.Summarize(res.Results)
	res.Timestamp = s.timestamp()

	status := evaluation.BatchCompleted
	switch {
	case res.TotalStudents == 0:
		status = evaluation.BatchFailed
	case res.Skipped+res.Failed > 0:
		status = evaluation.BatchPartial
	}
	s.recordBatch(ctx, &l, evaluation.Batch{
		ID:                   batchID,
		AssignmentID:         assignmentID,
		TotalSubmissions:     len(students),
		CompletedEvaluations: res.TotalStudents,
		Status:               status,
		Summary:              res.Summary,
		CreatedAt:            startedAt,
		CompletedAt:          res.Timestamp,
	})

	if res.TotalStudents == 0 {
		l.Warn().Int("skipped", res.Skipped).Int("failed", res.Failed).Msg("batch produced no evaluations")
		return evaluation.BatchResult{}, &evaluation.NoValidEvaluationsError{
			Total:   len(students),
			Skipped: res.Skipped,
			Failed:  res.Failed,
		}
	}

	l.Info().
		Int("evaluated", res.TotalStudents).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Float64("average_percentage", res.Summary.AveragePercentage).
		Msg("batch finished")

	s.notify(ctx, &l, res)
	return res, nil
}

func (s *Service) evaluateItem(ctx context.Context, l *zerolog.Logger, key evaluation.File, up evaluation.Upload, assignmentID, batchID string) itemOutcome {
	name := util.DisplayName(up.Name)
	il := l.With().Str("student", name).Logger()

	file, err := evaluation.NewFile("student_responses", up)
	if err != nil {
		il.Warn().Err(err).Msg("skipping submission")
		return itemOutcome{status: itemSkipped, err: err}
	}
	data, err := s.eval.Evaluate(ctx, key, file, name)
	if err != nil {
		il.Error().Err(err).Msg("evaluation failed")
		return itemOutcome{status: itemFailed, err: err}
	}
	rec, err := s.Persist(ctx, data, name, assignmentID, evaluation.TypeMultiple, batchID)
	if err != nil {
		il.Error().Err(err).Msg("persisting evaluation failed")
		return itemOutcome{status: itemFailed, err: err}
	}
	il.Debug().Str("id", rec.ID).Str("grade", rec.Grade).Msg("evaluation stored")
	return itemOutcome{status: itemPersisted, record: rec}
}

func (s *Service) notify(ctx context.Context, l *zerolog.Logger, res evaluation.BatchResult) {
	if s.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.notifier.BatchCompleted(nctx, res); err != nil {
		l.Warn().Err(err).Msg("batch notification failed")
	}
}

// recordBatch is best effort: the evaluations are already stored.
func (s *Service) recordBatch(ctx context.Context, l *zerolog.Logger, b evaluation.Batch) {
	if s.batches == nil {
		return
	}
	if err := s.batches.Insert(context.WithoutCancel(ctx), b); err != nil {
		l.Warn().Err(err).Msg("failed to store batch row")
	}
}

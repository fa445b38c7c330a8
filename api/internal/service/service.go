package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ai-grader/api/internal/evaluation"
	"ai-grader/api/internal/util"
)

// DefaultAssignmentID is used when a client does not name the assignment.
const DefaultAssignmentID = "default"

// TimeLayout is RFC3339 with fixed-width microseconds so stored timestamps
// sort lexically.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

type Evaluator interface {
	Evaluate(ctx context.Context, answerKey, student evaluation.File, studentName string) (evaluation.Data, error)
}

type RecordStore interface {
	Insert(ctx context.Context, rec evaluation.Record) error
	Get(ctx context.Context, id string) (evaluation.Record, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]evaluation.Record, error)
}

type BatchStore interface {
	Insert(ctx context.Context, b evaluation.Batch) error
	Get(ctx context.Context, id string) (evaluation.Batch, error)
}

// Notifier is told about every batch that produced results.
type Notifier interface {
	BatchCompleted(ctx context.Context, res evaluation.BatchResult) error
}

type Service struct {
	eval        Evaluator
	records     RecordStore
	batches     BatchStore
	notifier    Notifier
	log         *zerolog.Logger
	concurrency int

	now   func() time.Time
	newID func() string
}

// New wires the service. concurrency bounds how many students of one batch
// are graded at the same time; values below 1 mean sequential.
func New(eval Evaluator, records RecordStore, batches BatchStore, notifier Notifier, log *zerolog.Logger, concurrency int) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		eval:        eval,
		records:     records,
		batches:     batches,
		notifier:    notifier,
		log:         log,
		concurrency: concurrency,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// EvaluateSingle grades one student response and stores the result.
// An empty studentName falls back to the response's file name.
func (s *Service) EvaluateSingle(ctx context.Context, answerKey, student evaluation.Upload, studentName, assignmentID string) (evaluation.Record, error) {
	key, err := evaluation.NewFile("answer_key", answerKey)
	if err != nil {
		return evaluation.Record{}, err
	}
	resp, err := evaluation.NewFile("student_response", student)
	if err != nil {
		return evaluation.Record{}, err
	}
	if studentName == "" {
		studentName = util.DisplayName(student.Name)
	}
	if assignmentID == "" {
		assignmentID = DefaultAssignmentID
	}

	l := s.log.With().Str("assignment_id", assignmentID).Str("student", studentName).Logger()
	l.Info().Msg("evaluating submission")

	data, err := s.eval.Evaluate(ctx, key, resp, studentName)
	if err != nil {
		l.Error().Err(err).Msg("evaluation failed")
		return evaluation.Record{}, err
	}
	rec, err := s.Persist(ctx, data, studentName, assignmentID, evaluation.TypeSingle, "")
	if err != nil {
		l.Error().Err(err).Msg("persisting evaluation failed")
		return evaluation.Record{}, err
	}
	l.Info().Str("id", rec.ID).Float64("percentage", rec.Percentage).Str("grade", rec.Grade).Msg("evaluation stored")
	return rec, nil
}

// Persist gives data an identity and a timestamp and writes it once.
// There is no idempotency key: identical calls produce distinct records.
func (s *Service) Persist(ctx context.Context, data evaluation.Data, studentName, assignmentID string, typ evaluation.Type, batchID string) (evaluation.Record, error) {
	rec := evaluation.Record{
		ID:             s.newID(),
		StudentName:    studentName,
		AssignmentID:   assignmentID,
		BatchID:        batchID,
		Data:           data.WithDefaults(),
		Timestamp:      s.timestamp(),
		EvaluationType: typ,
	}
	if err := s.records.Insert(ctx, rec); err != nil {
		return evaluation.Record{}, &evaluation.PersistenceError{Op: "insert evaluation", Err: err}
	}
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id string) (evaluation.Record, error) {
	return s.records.Get(ctx, id)
}

func (s *Service) ListByAssignment(ctx context.Context, assignmentID string) ([]evaluation.Record, error) {
	return s.records.ListByAssignment(ctx, assignmentID)
}

func (s *Service) GetBatch(ctx context.Context, id string) (evaluation.Batch, error) {
	return s.batches.Get(ctx, id)
}

// Statistics summarizes every stored evaluation of an assignment.
func (s *Service) Statistics(ctx context.Context, assignmentID string) (evaluation.Summary, int, error) {
	recs, err := s.records.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return evaluation.Summary{}, 0, err
	}
	return evaluation.Summarize(recs), len(recs), nil
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(TimeLayout)
}

package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ai-grader/api/internal/evaluation"
)

// releaseTimeout bounds attachment cleanup, which runs even after the
// evaluation context has expired.
const releaseTimeout = 30 * time.Second

// Attachment is an opaque handle to a file held in the oracle's transient
// storage.
type Attachment struct {
	Name     string // oracle-side resource name, used for status and delete
	URI      string
	MIMEType string
	Label    string
	Ready    bool
}

// Client is the model provider as seen by the evaluator.
type Client interface {
	Upload(ctx context.Context, data []byte, mimeType, label string) (Attachment, error)
	// WaitReady blocks until the attachment can be referenced by a
	// generation request, or ctx ends.
	WaitReady(ctx context.Context, a Attachment) (Attachment, error)
	Generate(ctx context.Context, prompt string, atts []Attachment) (string, error)
	Delete(ctx context.Context, a Attachment) error
}

// Evaluator grades one student response against an answer key.
type Evaluator struct {
	client  Client
	timeout time.Duration
	log     *zerolog.Logger
}

// New returns an Evaluator. A zero timeout leaves the caller's deadline as
// the only bound.
func New(client Client, timeout time.Duration, log *zerolog.Logger) *Evaluator {
	return &Evaluator{client: client, timeout: timeout, log: log}
}

// Evaluate uploads both files, asks the model for a grade and decodes the
// reply. Every uploaded attachment is deleted before Evaluate returns,
// whatever the outcome.
func (e *Evaluator) Evaluate(ctx context.Context, answerKey, student evaluation.File, studentName string) (evaluation.Data, error) {
	if len(answerKey.Data) == 0 {
		return evaluation.Data{}, &evaluation.InvalidInputError{Field: "answer_key", Reason: "file is empty"}
	}
	if len(student.Data) == 0 {
		return evaluation.Data{}, &evaluation.InvalidInputError{Field: "student_response", Reason: "file is empty"}
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	var atts []Attachment
	defer func() { e.release(ctx, atts) }()

	for _, f := range []struct {
		file  evaluation.File
		label string
	}{
		{answerKey, "answer_key_" + answerKey.Name},
		{student, "student_response_" + student.Name},
	} {
		a, err := e.client.Upload(ctx, f.file.Data, f.file.MIMEType, f.label)
		if err != nil {
			return evaluation.Data{}, oracleError(ctx, "upload", err)
		}
		atts = append(atts, a)
	}

	for i := range atts {
		ready, err := e.client.WaitReady(ctx, atts[i])
		if err != nil {
			return evaluation.Data{}, oracleError(ctx, "wait ready", err)
		}
		atts[i] = ready
	}

	text, err := e.client.Generate(ctx, BuildPrompt(studentName), atts)
	if err != nil {
		return evaluation.Data{}, oracleError(ctx, "generate", err)
	}

	data, err := DecodeEvaluation(text)
	if err != nil {
		e.log.Debug().Str("student", studentName).Str("reply", text).Msg("undecodable oracle reply")
		return evaluation.Data{}, &evaluation.OracleError{Op: "decode", Err: err}
	}
	return data, nil
}

// release deletes attachments on a context detached from ctx's deadline.
// Failures are logged only: they must not replace the evaluation outcome.
func (e *Evaluator) release(ctx context.Context, atts []Attachment) {
	if len(atts) == 0 {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	for _, a := range atts {
		if err := e.client.Delete(rctx, a); err != nil {
			e.log.Warn().Err(err).Str("attachment", a.Name).Msg("failed to delete oracle attachment")
		}
	}
}

func oracleError(ctx context.Context, op string, err error) error {
	timeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
	if timeout && !errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return &evaluation.OracleError{Op: op, Timeout: timeout, Err: err}
}

package oracle_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ai-grader/api/internal/evaluation"
	"ai-grader/api/internal/oracle"
)

const goodReply = `{"total_marks":10,"obtained_marks":9,"percentage":90,"grade":"A","detailed_feedback":"ok"}`

/* ---------------- In-memory fake of the model provider ---------------- */

type fakeClient struct {
	mu sync.Mutex

	uploadErrAt int // 1-based upload that fails; 0 never
	waitErr     error
	genErr      error
	deleteErr   error
	reply       string
	block       bool // Generate waits for ctx

	uploads []string
	deleted []string
	prompt  string
	seen    []oracle.Attachment
}

func (f *fakeClient) Upload(ctx context.Context, data []byte, mimeType, label string) (oracle.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErrAt == len(f.uploads)+1 {
		return oracle.Attachment{}, errors.New("quota exceeded")
	}
	name := fmt.Sprintf("files/%d", len(f.uploads)+1)
	f.uploads = append(f.uploads, name)
	return oracle.Attachment{Name: name, URI: "https://files/" + name, MIMEType: mimeType, Label: label}, nil
}

func (f *fakeClient) WaitReady(ctx context.Context, a oracle.Attachment) (oracle.Attachment, error) {
	if f.waitErr != nil {
		return a, f.waitErr
	}
	a.Ready = true
	return a, nil
}

func (f *fakeClient) Generate(ctx context.Context, prompt string, atts []oracle.Attachment) (string, error) {
	f.mu.Lock()
	f.prompt = prompt
	f.seen = append([]oracle.Attachment(nil), atts...)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.genErr != nil {
		return "", f.genErr
	}
	return f.reply, nil
}

func (f *fakeClient) Delete(ctx context.Context, a oracle.Attachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	f.deleted = append(f.deleted, a.Name)
	return f.deleteErr
}

func (f *fakeClient) assertReleased(t *testing.T) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.deleted) != len(f.uploads) {
		t.Fatalf("uploaded %v, deleted %v", f.uploads, f.deleted)
	}
	seen := map[string]int{}
	for _, d := range f.deleted {
		seen[d]++
	}
	for _, u := range f.uploads {
		if seen[u] != 1 {
			t.Fatalf("attachment %s deleted %d times", u, seen[u])
		}
	}
}

func files() (evaluation.File, evaluation.File) {
	key := evaluation.File{Name: "key.pdf", Data: []byte("%PDF key"), MIMEType: "application/pdf"}
	stu := evaluation.File{Name: "alice.png", Data: []byte("png"), MIMEType: "image/png"}
	return key, stu
}

func newEvaluator(c oracle.Client, timeout time.Duration) *oracle.Evaluator {
	log := zerolog.Nop()
	return oracle.New(c, timeout, &log)
}

func TestEvaluateSuccess(t *testing.T) {
	c := &fakeClient{reply: goodReply}
	key, stu := files()

	d, err := newEvaluator(c, time.Second).Evaluate(context.Background(), key, stu, "Alice")
	if err != nil {
		t.Fatal(err)
	}
	if d.Percentage != 90 || d.Grade != "A" || d.ObtainedMarks != 9 {
		t.Fatalf("data: %+v", d)
	}
	if len(c.seen) != 2 || c.seen[0].Label != "answer_key_key.pdf" || c.seen[1].Label != "student_response_alice.png" {
		t.Fatalf("attachments: %+v", c.seen)
	}
	if !c.seen[0].Ready || !c.seen[1].Ready {
		t.Fatal("generate called before attachments were ready")
	}
	if !strings.Contains(c.prompt, `"Alice"`) {
		t.Fatalf("prompt does not name the student: %q", c.prompt)
	}
	c.assertReleased(t)
}

func TestEvaluateReleasesOnFailure(t *testing.T) {
	cases := map[string]*fakeClient{
		"second upload": {uploadErrAt: 2, reply: goodReply},
		"first upload":  {uploadErrAt: 1, reply: goodReply},
		"wait ready":    {waitErr: errors.New("processing failed"), reply: goodReply},
		"generate":      {genErr: errors.New("503")},
		"decode":        {reply: "I cannot grade this."},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			key, stu := files()
			_, err := newEvaluator(c, time.Second).Evaluate(context.Background(), key, stu, "Alice")
			var oe *evaluation.OracleError
			if !errors.As(err, &oe) {
				t.Fatalf("want OracleError, got %v", err)
			}
			if oe.Timeout {
				t.Fatal("unexpected timeout flag")
			}
			c.assertReleased(t)
		})
	}
}

func TestEvaluateTimeout(t *testing.T) {
	c := &fakeClient{block: true}
	key, stu := files()

	_, err := newEvaluator(c, 20*time.Millisecond).Evaluate(context.Background(), key, stu, "Alice")
	if !errors.Is(err, evaluation.ErrOracleTimeout) {
		t.Fatalf("want ErrOracleTimeout, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want DeadlineExceeded in chain, got %v", err)
	}
	// cleanup runs on a context detached from the expired deadline
	c.assertReleased(t)
}

func TestEvaluateDeleteErrorIsSwallowed(t *testing.T) {
	c := &fakeClient{reply: goodReply, deleteErr: errors.New("not found")}
	key, stu := files()

	if _, err := newEvaluator(c, time.Second).Evaluate(context.Background(), key, stu, "Alice"); err != nil {
		t.Fatalf("delete failure leaked: %v", err)
	}
	c.assertReleased(t)
}

func TestEvaluateEmptyFileMakesNoCalls(t *testing.T) {
	c := &fakeClient{reply: goodReply}
	key, _ := files()

	_, err := newEvaluator(c, time.Second).Evaluate(context.Background(), key, evaluation.File{Name: "empty.pdf"}, "Alice")
	var in *evaluation.InvalidInputError
	if !errors.As(err, &in) {
		t.Fatalf("want InvalidInputError, got %v", err)
	}
	if len(c.uploads) != 0 || c.prompt != "" {
		t.Fatal("oracle was called for an empty file")
	}
}

func TestBuildPrompt(t *testing.T) {
	p := oracle.BuildPrompt(`Bob "the" Builder`)
	if !strings.Contains(p, `"Bob \"the\" Builder"`) {
		t.Fatalf("student name not quoted: %q", p)
	}
	for _, k := range []string{"total_marks", "obtained_marks", "percentage", "grade", "detailed_feedback"} {
		if !strings.Contains(p, k) {
			t.Errorf("prompt misses %s", k)
		}
	}
}

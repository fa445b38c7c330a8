package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"

	"ai-grader/api/internal/oracle"
)

func TestFirstText(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
		{Content: nil},
		{Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}, genai.Text(`{"grade":"A"}`)}}},
	}}
	if got := firstText(resp); got != `{"grade":"A"}` {
		t.Fatalf("got %q", got)
	}
	if got := firstText(nil); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestToAttachment(t *testing.T) {
	a := toAttachment(&genai.File{
		Name:        "files/abc",
		URI:         "https://generativelanguage.googleapis.com/v1beta/files/abc",
		MIMEType:    "application/pdf",
		DisplayName: "answer_key_key.pdf",
		State:       genai.FileStateActive,
	})
	if a.Name != "files/abc" || !a.Ready || a.Label != "answer_key_key.pdf" || a.MIMEType != "application/pdf" {
		t.Fatalf("attachment: %+v", a)
	}
	if toAttachment(&genai.File{State: genai.FileStateProcessing}).Ready {
		t.Fatal("processing file reported ready")
	}
}

func TestWaitReadyShortCircuits(t *testing.T) {
	c := &Client{}
	a := oracle.Attachment{Name: "files/abc", Ready: true}
	got, err := c.WaitReady(context.Background(), a)
	if err != nil || got != a {
		t.Fatalf("got %+v %v", got, err)
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(context.Background(), "  ", "gemini-1.5-flash", 0); err == nil {
		t.Fatal("want error for empty key")
	}
}

var _ oracle.Client = (*Client)(nil)

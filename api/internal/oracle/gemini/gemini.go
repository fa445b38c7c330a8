package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"ai-grader/api/internal/oracle"
)

const defaultPollInterval = 2 * time.Second

// Client talks to the Gemini API: the File API for attachments and
// GenerateContent for grading.
type Client struct {
	cl           *genai.Client
	model        string
	pollInterval time.Duration
}

func New(ctx context.Context, apiKey, model string, pollInterval time.Duration) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Client{
		cl:           cl,
		model:        strings.TrimSpace(model),
		pollInterval: pollInterval,
	}, nil
}

func (c *Client) Name() string     { return "gemini" }
func (c *Client) GetModel() string { return c.model }

func (c *Client) Close() error { return c.cl.Close() }

func (c *Client) Upload(ctx context.Context, data []byte, mimeType, label string) (oracle.Attachment, error) {
	f, err := c.cl.UploadFile(ctx, "", bytes.NewReader(data), &genai.UploadFileOptions{
		MIMEType:    mimeType,
		DisplayName: label,
	})
	if err != nil {
		return oracle.Attachment{}, fmt.Errorf("gemini upload %q: %w", label, err)
	}
	a := toAttachment(f)
	a.Label = label
	return a, nil
}

// WaitReady polls the file state until the File API reports it ACTIVE.
func (c *Client) WaitReady(ctx context.Context, a oracle.Attachment) (oracle.Attachment, error) {
	if a.Ready {
		return a, nil
	}
	t := time.NewTicker(c.pollInterval)
	defer t.Stop()
	for {
		f, err := c.cl.GetFile(ctx, a.Name)
		if err != nil {
			return a, fmt.Errorf("gemini file %s: %w", a.Name, err)
		}
		switch f.State {
		case genai.FileStateActive:
			ready := toAttachment(f)
			ready.Label = a.Label
			return ready, nil
		case genai.FileStateFailed:
			return a, fmt.Errorf("gemini file %s: processing failed", a.Name)
		}
		select {
		case <-ctx.Done():
			return a, fmt.Errorf("gemini file %s still processing: %w", a.Name, ctx.Err())
		case <-t.C:
		}
	}
}

func (c *Client) Generate(ctx context.Context, prompt string, atts []oracle.Attachment) (string, error) {
	m := c.cl.GenerativeModel(c.model)
	if m == nil {
		return "", fmt.Errorf("gemini: model is nil")
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}

	parts := []genai.Part{genai.Text(prompt)}
	for _, a := range atts {
		parts = append(parts, genai.FileData{MIMEType: a.MIMEType, URI: a.URI})
	}

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	txt := firstText(resp)
	if strings.TrimSpace(txt) == "" {
		return "", fmt.Errorf("gemini generate: empty response")
	}
	return txt, nil
}

func (c *Client) Delete(ctx context.Context, a oracle.Attachment) error {
	if err := c.cl.DeleteFile(ctx, a.Name); err != nil {
		return fmt.Errorf("gemini delete %s: %w", a.Name, err)
	}
	return nil
}

// --------------------------- helpers ---------------------------

func toAttachment(f *genai.File) oracle.Attachment {
	return oracle.Attachment{
		Name:     f.Name,
		URI:      f.URI,
		MIMEType: f.MIMEType,
		Label:    f.DisplayName,
		Ready:    f.State == genai.FileStateActive,
	}
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }

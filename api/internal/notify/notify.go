package notify

import (
	"context"

	"ai-grader/api/internal/evaluation"
)

// Nop is used when no notification channel is configured.
type Nop struct{}

func (Nop) BatchCompleted(context.Context, evaluation.BatchResult) error { return nil }

package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"ai-grader/api/internal/evaluation"
	"ai-grader/api/internal/util"
)

// DecodeEvaluation coerces the model reply into evaluation.Data. The reply is
// untrusted: every key may be missing or carry the wrong JSON type, and each
// field falls back to a default instead of failing. Non-finite numbers count
// as missing. Only a reply that is not exactly one JSON object is an error.
func DecodeEvaluation(text string) (evaluation.Data, error) {
	raw := util.StripCodeFences(text)
	if raw == "" {
		return evaluation.Data{}, errors.New("empty response")
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return evaluation.Data{}, fmt.Errorf("bad JSON: %w", err)
	}
	if m == nil {
		return evaluation.Data{}, errors.New("bad JSON: expected an object, got null")
	}
	if _, err := dec.Token(); err != io.EOF {
		return evaluation.Data{}, errors.New("bad JSON: unexpected data after the object")
	}

	d := evaluation.Data{
		TotalMarks:          asInt(m["total_marks"]),
		ObtainedMarks:       asInt(m["obtained_marks"]),
		Grade:               strings.TrimSpace(asString(m["grade"])),
		CorrectAnswers:      asStrings(m["correct_answers"]),
		IncorrectAnswers:    asStrings(m["incorrect_answers"]),
		PartialCreditAreas:  asStrings(m["partial_credit_areas"]),
		Strengths:           asStrings(m["strengths"]),
		AreasForImprovement: asStrings(m["areas_for_improvement"]),
		DetailedFeedback:    asString(m["detailed_feedback"]),
	}
	if p, ok := asFloat(m["percentage"]); ok {
		d.Percentage = p
	} else if d.TotalMarks > 0 {
		d.Percentage = evaluation.Round2(float64(d.ObtainedMarks) / float64(d.TotalMarks) * 100)
	}
	return d.WithDefaults(), nil
}

// maxMarks bounds mark counts so rounding a huge float cannot overflow int.
const maxMarks = 1_000_000

// asFloat reports false for anything that is not a finite number.
func asFloat(v any) (float64, bool) {
	f, ok := parseFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case float64:
		return x, true
	case string:
		s := strings.TrimSuffix(strings.TrimSpace(x), "%")
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asInt(v any) int {
	f, ok := asFloat(v)
	if !ok {
		return 0
	}
	return int(math.Round(math.Max(-maxMarks, math.Min(maxMarks, f))))
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

// asStrings accepts an array (items are stringified) or a lone string.
func asStrings(v any) []string {
	switch x := v.(type) {
	case []any:
		out := make([]string, 0, len(x))
		for _, it := range x {
			if s := strings.TrimSpace(asString(it)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(x); s != "" {
			return []string{s}
		}
	}
	return []string{}
}

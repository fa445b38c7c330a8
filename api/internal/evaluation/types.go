package evaluation

import "math"

type Type string

const (
	TypeSingle   Type = "single"
	TypeMultiple Type = "multiple"
)

// Data is one grading pass as decoded from the oracle reply, before it gets
// an identity.
type Data struct {
	TotalMarks          int      `json:"total_marks"`
	ObtainedMarks       int      `json:"obtained_marks"`
	Percentage          float64  `json:"percentage"`
	Grade               string   `json:"grade"` // A | B | C | D | F, not enforced
	CorrectAnswers      []string `json:"correct_answers"`
	IncorrectAnswers    []string `json:"incorrect_answers"`
	PartialCreditAreas  []string `json:"partial_credit_areas"`
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areas_for_improvement"`
	DetailedFeedback    string   `json:"detailed_feedback"`
}

// WithDefaults fills whatever the oracle left out. Lists become empty
// rather than nil and a blank grade is derived from the percentage.
func (d Data) WithDefaults() Data {
	d.CorrectAnswers = nonNil(d.CorrectAnswers)
	d.IncorrectAnswers = nonNil(d.IncorrectAnswers)
	d.PartialCreditAreas = nonNil(d.PartialCreditAreas)
	d.Strengths = nonNil(d.Strengths)
	d.AreasForImprovement = nonNil(d.AreasForImprovement)
	if d.Grade == "" {
		d.Grade = GradeFor(d.Percentage)
	}
	return d
}

// Record is a persisted, write-once evaluation.
type Record struct {
	ID           string `json:"id"`
	StudentName  string `json:"student_name"`
	AssignmentID string `json:"assignment_id"`
	BatchID      string `json:"batch_id,omitempty"`
	Data
	Timestamp      string `json:"timestamp"` // RFC 3339, UTC
	EvaluationType Type   `json:"evaluation_type"`
}

type Summary struct {
	AveragePercentage float64        `json:"average_percentage"`
	GradeDistribution map[string]int `json:"grade_distribution"`
	HighestScore      float64        `json:"highest_score"`
	LowestScore       float64        `json:"lowest_score"`
}

type BatchStatus string

const (
	BatchCompleted BatchStatus = "completed" // every submission persisted
	BatchPartial   BatchStatus = "partial"   // some skipped or failed
	BatchFailed    BatchStatus = "failed"    // nothing persisted
)

// BatchResult is what the coordinator hands back for one multi-student
// request. Results keep the input order minus skipped and failed items.
type BatchResult struct {
	ID            string   `json:"evaluation_id"`
	AssignmentID  string   `json:"assignment_id"`
	Results       []Record `json:"results"`
	Summary       Summary  `json:"summary"`
	TotalStudents int      `json:"total_students"`
	Skipped       int      `json:"skipped"`
	Failed        int      `json:"failed"`
	Timestamp     string   `json:"timestamp"`
}

// Batch is the audit row stored for every multi-student request.
type Batch struct {
	ID                   string      `json:"id"`
	AssignmentID         string      `json:"assignment_id"`
	TotalSubmissions     int         `json:"total_submissions"`
	CompletedEvaluations int         `json:"completed_evaluations"`
	Status               BatchStatus `json:"status"`
	Summary              Summary     `json:"summary"`
	CreatedAt            string      `json:"created_at"`
	CompletedAt          string      `json:"completed_at"`
}

// Upload is a raw file as received from a client, possibly empty.
type Upload struct {
	Name string
	Data []byte
	// Err is set when the part could not be read from the request.
	Err error
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

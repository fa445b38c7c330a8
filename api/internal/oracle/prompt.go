package oracle

import "fmt"

// evaluationPrompt is the contract with the model: the reply is parsed
// structurally, so field names and grade thresholds must stay as they are.
const evaluationPrompt = `You are an expert teacher and evaluator. You are given two documents:
1) the ANSWER KEY prepared by the teacher (first attachment);
2) the RESPONSE submitted by the student %q (second attachment).

Compare the student's response against the answer key question by question and grade it.
Award partial credit where the student is partially correct and say where.

Return STRICT JSON only, no prose, in exactly this shape:
{
  "total_marks": integer,            // maximum marks available according to the answer key
  "obtained_marks": integer,         // marks earned by the student, never above total_marks
  "percentage": number,              // obtained_marks / total_marks * 100
  "grade": "A" | "B" | "C" | "D" | "F",
  "correct_answers": [string],       // questions answered correctly
  "incorrect_answers": [string],     // questions answered incorrectly, with the expected answer
  "partial_credit_areas": [string],  // questions that earned partial credit and why
  "strengths": [string],
  "areas_for_improvement": [string],
  "detailed_feedback": string        // a few sentences addressed to the student
}

Grading policy by percentage:
- A: 90 and above
- B: 80 to below 90
- C: 70 to below 80
- D: 60 to below 70
- F: below 60

Order every list by relevance. If a document is unreadable, say so in detailed_feedback and grade what can be read.`

// BuildPrompt renders the instruction template for one student.
func BuildPrompt(studentName string) string {
	return fmt.Sprintf(evaluationPrompt, studentName)
}

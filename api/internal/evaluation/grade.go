package evaluation

// GradeFor applies the letter-grade policy given to the oracle:
// A >= 90, B >= 80, C >= 70, D >= 60, F otherwise.
func GradeFor(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A"
	case percentage >= 80:
		return "B"
	case percentage >= 70:
		return "C"
	case percentage >= 60:
		return "D"
	default:
		return "F"
	}
}

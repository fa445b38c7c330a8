package evaluation

// Summarize aggregates the given records. Only grades that actually occur
// show up in the distribution.
func Summarize(records []Record) Summary {
	s := Summary{GradeDistribution: map[string]int{}}
	if len(records) == 0 {
		return s
	}

	var total float64
	s.HighestScore = records[0].Percentage
	s.LowestScore = records[0].Percentage
	for _, r := range records {
		total += r.Percentage
		if r.Percentage > s.HighestScore {
			s.HighestScore = r.Percentage
		}
		if r.Percentage < s.LowestScore {
			s.LowestScore = r.Percentage
		}
		s.GradeDistribution[r.Grade]++
	}
	s.AveragePercentage = Round2(total / float64(len(records)))
	return s
}

package app

import "quizlive-service/internal/domain"

// correctAnswerPoints is the fixed award for a correct choice answer.
const correctAnswerPoints = 100

// ScoreDelta maps an answer to its score contribution. Only mcq and
// truefalse questions score; wordcloud and ranking are intentionally
// participation-only.
func ScoreDelta(q domain.Question, a domain.Answer) int {
	switch q.Kind {
	case domain.KindMCQ, domain.KindTrueFalse:
		if a.Choice != nil && *a.Choice == q.Correct {
			return correctAnswerPoints
		}
	}
	return 0
}

// RecomputeScore derives a participant's total from their full answers
// map. Submitting the same answer twice, or changing an answer, can
// never double-award because the total is always rebuilt from scratch.
func RecomputeScore(questions []domain.Question, answers map[int]domain.Answer) int {
	total := 0
	for index, a := range answers {
		if index < 0 || index >= len(questions) {
			continue
		}
		total += ScoreDelta(questions[index], a)
	}
	return total
}

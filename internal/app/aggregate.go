package app

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"quizlive-service/internal/domain"
)

const (
	// maxWordsPerParticipant caps how many comma-separated tokens one
	// wordcloud answer contributes; extras are silently dropped.
	maxWordsPerParticipant = 10
	// maxWordLength drops oversized tokens.
	maxWordLength = 50
	// AdminWordLimit and PresenterWordLimit bound the word cloud size
	// per viewer.
	AdminWordLimit     = 30
	PresenterWordLimit = 40
)

// Aggregation is pure and fails closed: missing options, absent answers
// or malformed payloads count as "no response", never as an error.

// AggregateChoice counts answers per option for an mcq/truefalse
// question. Percentages are rounded half-up per option and do not
// necessarily sum to 100.
func AggregateChoice(q domain.Question, participants map[string]domain.Participant, index int) domain.ChoiceSummary {
	counts := make([]int, len(q.Options))
	total := 0
	for _, p := range participants {
		a, ok := p.Answers[index]
		if !ok || a.Choice == nil {
			continue
		}
		c := *a.Choice
		if c < 0 || c >= len(counts) {
			continue
		}
		counts[c]++
		total++
	}
	percents := make([]int, len(counts))
	if total > 0 {
		for i, c := range counts {
			percents[i] = int(math.Round(100 * float64(c) / float64(total)))
		}
	}
	return domain.ChoiceSummary{Counts: counts, Total: total, Percents: percents}
}

// AggregateWordCloud builds a frequency table over comma-separated
// tokens: trimmed, lower-cased, empty and over-length tokens dropped,
// at most maxWordsPerParticipant per answer. The top limit tokens are
// returned by descending count; ties keep first-seen order.
func AggregateWordCloud(participants map[string]domain.Participant, index, limit int) domain.WordCloudSummary {
	counts := make(map[string]int)
	var order []string
	for _, p := range participants {
		a, ok := p.Answers[index]
		if !ok || a.Text == "" {
			continue
		}
		kept := 0
		for _, raw := range strings.Split(a.Text, ",") {
			if kept >= maxWordsPerParticipant {
				break
			}
			word := strings.ToLower(strings.TrimSpace(raw))
			if word == "" || utf8.RuneCountInString(word) > maxWordLength {
				continue
			}
			if _, seen := counts[word]; !seen {
				order = append(order, word)
			}
			counts[word]++
			kept++
		}
	}
	words := make([]domain.WordCount, 0, len(order))
	for _, w := range order {
		words = append(words, domain.WordCount{Word: w, Count: counts[w]})
	}
	sort.SliceStable(words, func(i, j int) bool { return words[i].Count > words[j].Count })
	if limit > 0 && len(words) > limit {
		words = words[:limit]
	}
	return domain.WordCloudSummary{Words: words}
}

// AggregateRanking scores each item by summed preference: an item at
// 0-based rank r in an answer of length n earns n-r points. Items are
// listed by descending score, ties stable by original item order.
func AggregateRanking(q domain.Question, participants map[string]domain.Participant, index int) domain.RankingSummary {
	scores := make([]int, len(q.Items))
	responses := 0
	for _, p := range participants {
		a, ok := p.Answers[index]
		if !ok || a.Ranking == nil {
			continue
		}
		responses++
		for rank, itemIndex := range a.Ranking {
			if itemIndex < 0 || itemIndex >= len(scores) {
				continue
			}
			scores[itemIndex] += len(a.Ranking) - rank
		}
	}
	items := make([]domain.RankedItem, len(q.Items))
	for i, item := range q.Items {
		items[i] = domain.RankedItem{Index: i, Item: item, Score: scores[i]}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })
	return domain.RankingSummary{Items: items, ResponseCount: responses}
}

// AggregateQuestion dispatches on the question kind; slides have no
// aggregate and return nil.
func AggregateQuestion(s domain.Session, index, wordLimit int) *domain.QuestionResults {
	if index < 0 || index >= len(s.Questions) {
		return nil
	}
	q := s.Questions[index]
	results := &domain.QuestionResults{Index: index, Kind: q.Kind}
	switch q.Kind {
	case domain.KindMCQ, domain.KindTrueFalse:
		summary := AggregateChoice(q, s.Participants, index)
		results.Choice = &summary
	case domain.KindWordCloud:
		summary := AggregateWordCloud(s.Participants, index, wordLimit)
		results.WordCloud = &summary
	case domain.KindRanking:
		summary := AggregateRanking(q, s.Participants, index)
		results.Ranking = &summary
	default:
		return nil
	}
	return results
}

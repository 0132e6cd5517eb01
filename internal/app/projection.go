package app

import (
	"sort"

	"quizlive-service/internal/domain"
)

// Projections map a session snapshot and a viewer role to the data that
// viewer renders. They never write and never mutate the snapshot.

// leaderboardLimit caps how many entries the projected leaderboard
// carries; ranks are still computed over the full ordering.
const leaderboardLimit = 10

// Leaderboard orders participants by score descending, ties broken by
// join time then name so the ordering is stable across clients.
func Leaderboard(s domain.Session) []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0, len(s.Participants))
	joined := make(map[string]int64, len(s.Participants))
	for _, p := range s.Participants {
		entries = append(entries, domain.LeaderboardEntry{
			ID:       p.ID,
			Name:     p.Name,
			Score:    p.Score,
			Answered: len(p.Answers),
		})
		joined[p.ID] = p.JoinedAt.UnixNano()
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if joined[entries[i].ID] != joined[entries[j].ID] {
			return joined[entries[i].ID] < joined[entries[j].ID]
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}

func topEntries(entries []domain.LeaderboardEntry) []domain.LeaderboardEntry {
	if len(entries) > leaderboardLimit {
		return entries[:leaderboardLimit]
	}
	return entries
}

// ProjectAdmin exposes full question content and live aggregates for
// the current question regardless of the reveal gate. The participant
// roster is complete; only the leaderboard is capped.
func ProjectAdmin(s domain.Session) domain.AdminView {
	lb := Leaderboard(s)
	participants := make([]domain.LeaderboardEntry, len(lb))
	copy(participants, lb)
	sort.Slice(participants, func(i, j int) bool {
		pi, pj := s.Participants[participants[i].ID], s.Participants[participants[j].ID]
		if !pi.JoinedAt.Equal(pj.JoinedAt) {
			return pi.JoinedAt.Before(pj.JoinedAt)
		}
		return participants[i].Name < participants[j].Name
	})
	return domain.AdminView{
		Code:            s.Code,
		Name:            s.Name,
		Status:          s.Status,
		CurrentQuestion: s.CurrentQuestion,
		Questions:       s.Questions,
		Participants:    participants,
		Leaderboard:     topEntries(lb),
		Results:         AggregateQuestion(s, s.CurrentQuestion, AdminWordLimit),
		PresenterMode:   s.PresenterMode,
	}
}

// ProjectPlayer exposes only the current question to one participant.
// The correct option and choice aggregates stay hidden until the
// question is revealed; after reveal the view includes whether the
// player's own answer was correct.
func ProjectPlayer(s domain.Session, participantID string) domain.PlayerView {
	p, joined := s.Participants[participantID]
	view := domain.PlayerView{
		Code:            s.Code,
		Status:          s.Status,
		CurrentQuestion: s.CurrentQuestion,
		QuestionCount:   len(s.Questions),
	}
	if joined {
		view.Score = p.Score
	}
	if s.Status == domain.StatusFinished {
		full := Leaderboard(s)
		for i, entry := range full {
			if entry.ID == participantID {
				view.Rank = i + 1
				break
			}
		}
		view.Leaderboard = topEntries(full)
		return view
	}
	if s.Status != domain.StatusActive || s.CurrentQuestion < 0 || s.CurrentQuestion >= len(s.Questions) {
		return view
	}

	q := s.Questions[s.CurrentQuestion]
	pq := stripQuestion(q)
	view.Question = &pq
	if joined {
		if a, ok := p.Answers[s.CurrentQuestion]; ok {
			answer := a
			view.YourAnswer = &answer
		}
	}
	if choiceKind(q.Kind) && q.ShowResults {
		view.Revealed = true
		correct := q.Correct
		view.CorrectOption = &correct
		view.Results = AggregateQuestion(s, s.CurrentQuestion, AdminWordLimit)
		if view.YourAnswer != nil && view.YourAnswer.Choice != nil {
			ok := *view.YourAnswer.Choice == q.Correct
			view.YourCorrect = &ok
		}
	}
	return view
}

// ProjectPresenter mirrors the admin aggregates for public display but
// carries no participant identities, only counts.
func ProjectPresenter(s domain.Session) domain.PresenterView {
	view := domain.PresenterView{
		Code:             s.Code,
		Name:             s.Name,
		Status:           s.Status,
		CurrentQuestion:  s.CurrentQuestion,
		QuestionCount:    len(s.Questions),
		ParticipantCount: len(s.Participants),
	}
	if s.CurrentQuestion >= 0 && s.CurrentQuestion < len(s.Questions) {
		pq := stripQuestion(s.Questions[s.CurrentQuestion])
		view.Question = &pq
		view.Results = AggregateQuestion(s, s.CurrentQuestion, PresenterWordLimit)
	}
	return view
}

func stripQuestion(q domain.Question) domain.PlayerQuestion {
	return domain.PlayerQuestion{
		Kind:        q.Kind,
		Text:        q.Text,
		Options:     q.Options,
		Items:       q.Items,
		Name:        q.Name,
		ImageData:   q.ImageData,
		ShowResults: q.ShowResults,
	}
}

func choiceKind(k domain.QuestionKind) bool {
	return k == domain.KindMCQ || k == domain.KindTrueFalse
}

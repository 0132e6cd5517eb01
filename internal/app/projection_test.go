package app_test

import (
	"fmt"
	"testing"
	"time"

	"quizlive-service/internal/app"
	"quizlive-service/internal/domain"
)

func projectionSession() domain.Session {
	base := time.Unix(1700000000, 0)
	return domain.Session{
		Code:            "QZ1234",
		Name:            "Friday quiz",
		Status:          domain.StatusActive,
		CurrentQuestion: 0,
		Questions: []domain.Question{
			{Kind: domain.KindMCQ, Text: "Pick one", Options: []string{"Red", "Blue"}, Correct: 1},
		},
		Participants: map[string]domain.Participant{
			"u1": {ID: "u1", Name: "Alice", JoinedAt: base,
				Score: 100, Answers: map[int]domain.Answer{0: domain.ChoiceAnswer(1)}},
			"u2": {ID: "u2", Name: "Bob", JoinedAt: base.Add(time.Second),
				Score: 0, Answers: map[int]domain.Answer{0: domain.ChoiceAnswer(0)}},
			"u3": {ID: "u3", Name: "Cara", JoinedAt: base.Add(2 * time.Second)},
		},
	}
}

func TestLeaderboardOrdering(t *testing.T) {
	s := projectionSession()
	s.Participants["u4"] = domain.Participant{
		ID: "u4", Name: "Bob", JoinedAt: s.Participants["u2"].JoinedAt, Score: 0,
	}

	lb := app.Leaderboard(s)
	if len(lb) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(lb))
	}
	if lb[0].ID != "u1" {
		t.Fatalf("expected top scorer first, got %v", lb[0])
	}
	// u2 and u4 tie on score and join time; name breaks nothing here
	// (both "Bob") so id order is unspecified, but u3 joined last.
	if lb[3].ID != "u3" {
		t.Fatalf("expected latest joiner last among zero scores, got %v", lb[3])
	}
	if lb[0].Answered != 1 {
		t.Fatalf("expected answered count 1, got %d", lb[0].Answered)
	}
}

func TestLeaderboardTiesBreakByJoinTime(t *testing.T) {
	base := time.Unix(1700000000, 0)
	s := domain.Session{
		Participants: map[string]domain.Participant{
			"late":  {ID: "late", Name: "Zed", JoinedAt: base.Add(time.Minute), Score: 100},
			"early": {ID: "early", Name: "Amy", JoinedAt: base, Score: 100},
		},
	}
	lb := app.Leaderboard(s)
	if lb[0].ID != "early" || lb[1].ID != "late" {
		t.Fatalf("expected earlier joiner to win the tie, got %v", lb)
	}
}

func TestProjectAdminSeesAggregatesBeforeReveal(t *testing.T) {
	view := app.ProjectAdmin(projectionSession())
	if view.Results == nil || view.Results.Choice == nil {
		t.Fatalf("admin must see live aggregates, got %+v", view.Results)
	}
	if view.Results.Choice.Total != 2 {
		t.Fatalf("expected 2 responses, got %d", view.Results.Choice.Total)
	}
	if len(view.Questions) != 1 || view.Questions[0].Correct != 1 {
		t.Fatalf("admin must see full questions, got %+v", view.Questions)
	}
	if len(view.Participants) != 3 || view.Participants[0].Name != "Alice" {
		t.Fatalf("expected participants in join order, got %+v", view.Participants)
	}
}

func TestProjectPlayerHidesResultsUntilReveal(t *testing.T) {
	s := projectionSession()
	view := app.ProjectPlayer(s, "u2")
	if view.Question == nil || view.Question.Text != "Pick one" {
		t.Fatalf("expected current question, got %+v", view.Question)
	}
	if view.Revealed || view.CorrectOption != nil || view.Results != nil || view.YourCorrect != nil {
		t.Fatalf("results leaked before reveal: %+v", view)
	}
	if view.YourAnswer == nil || view.YourAnswer.Choice == nil || *view.YourAnswer.Choice != 0 {
		t.Fatalf("expected own answer echoed, got %+v", view.YourAnswer)
	}
}

func TestProjectPlayerAfterReveal(t *testing.T) {
	s := projectionSession()
	s.Questions[0].ShowResults = true

	winner := app.ProjectPlayer(s, "u1")
	if !winner.Revealed || winner.CorrectOption == nil || *winner.CorrectOption != 1 {
		t.Fatalf("expected correct option revealed, got %+v", winner)
	}
	if winner.YourCorrect == nil || !*winner.YourCorrect {
		t.Fatalf("expected u1 marked correct, got %+v", winner.YourCorrect)
	}
	if winner.Results == nil || winner.Results.Choice == nil {
		t.Fatalf("expected aggregates after reveal")
	}

	loser := app.ProjectPlayer(s, "u2")
	if loser.YourCorrect == nil || *loser.YourCorrect {
		t.Fatalf("expected u2 marked wrong, got %+v", loser.YourCorrect)
	}

	// u3 never answered; no correctness verdict for them.
	silent := app.ProjectPlayer(s, "u3")
	if silent.YourCorrect != nil {
		t.Fatalf("expected no verdict without an answer, got %+v", silent.YourCorrect)
	}
}

func TestProjectPlayerFinishedShowsRank(t *testing.T) {
	s := projectionSession()
	s.Status = domain.StatusFinished

	view := app.ProjectPlayer(s, "u2")
	if view.Question != nil {
		t.Fatalf("finished view must not carry a question")
	}
	if len(view.Leaderboard) != 3 {
		t.Fatalf("expected full leaderboard, got %d entries", len(view.Leaderboard))
	}
	if view.Rank != 2 {
		t.Fatalf("expected rank 2 for u2, got %d", view.Rank)
	}
}

func TestLeaderboardProjectionCapsAtTen(t *testing.T) {
	base := time.Unix(1700000000, 0)
	s := domain.Session{
		Code:   "QZ1234",
		Status: domain.StatusFinished,
		Questions: []domain.Question{
			{Kind: domain.KindMCQ, Text: "Pick one", Options: []string{"A", "B"}, Correct: 0},
		},
		Participants: map[string]domain.Participant{},
	}
	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("u%02d", i)
		s.Participants[id] = domain.Participant{
			ID:       id,
			Name:     id,
			JoinedAt: base.Add(time.Duration(i) * time.Second),
			Score:    (12 - i) * 10,
		}
	}

	admin := app.ProjectAdmin(s)
	if len(admin.Leaderboard) != 10 {
		t.Fatalf("expected admin leaderboard capped at 10, got %d", len(admin.Leaderboard))
	}
	if len(admin.Participants) != 12 {
		t.Fatalf("participant roster must stay complete, got %d", len(admin.Participants))
	}

	// The lowest scorer falls outside the cap but still has a rank.
	player := app.ProjectPlayer(s, "u11")
	if len(player.Leaderboard) != 10 {
		t.Fatalf("expected player leaderboard capped at 10, got %d", len(player.Leaderboard))
	}
	if player.Rank != 12 {
		t.Fatalf("expected rank 12 beyond the cap, got %d", player.Rank)
	}
}

func TestProjectPresenterCarriesNoIdentities(t *testing.T) {
	s := projectionSession()
	view := app.ProjectPresenter(s)
	if view.ParticipantCount != 3 {
		t.Fatalf("expected participant count 3, got %d", view.ParticipantCount)
	}
	if view.Question == nil || view.Question.Text != "Pick one" {
		t.Fatalf("expected current question, got %+v", view.Question)
	}
	if view.Results == nil || view.Results.Choice == nil || view.Results.Choice.Total != 2 {
		t.Fatalf("expected live aggregates, got %+v", view.Results)
	}
}

func TestProjectPlayerWaiting(t *testing.T) {
	s := projectionSession()
	s.Status = domain.StatusWaiting
	s.CurrentQuestion = -1

	view := app.ProjectPlayer(s, "u1")
	if view.Question != nil || view.Results != nil {
		t.Fatalf("waiting view must be bare, got %+v", view)
	}
	if view.QuestionCount != 1 {
		t.Fatalf("expected question count 1, got %d", view.QuestionCount)
	}
}

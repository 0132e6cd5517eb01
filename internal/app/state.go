package app

import (
	"fmt"

	"quizlive-service/internal/domain"
)

// The session lifecycle is waiting -> active -> finished, with active
// self-looping as the current question moves. Transitions are pure:
// they read a snapshot and return the mutation the store should apply,
// holding no state of their own.

// StartQuiz activates a waiting session at its first question.
func StartQuiz(s domain.Session) (domain.Mutation, error) {
	switch s.Status {
	case domain.StatusFinished:
		return nil, domain.ErrSessionFinished
	case domain.StatusActive:
		return nil, domain.ErrAlreadyStarted
	}
	if len(s.Questions) == 0 {
		return nil, domain.ErrEmptyQuestionSet
	}
	return domain.Mutation{
		"status":          domain.StatusActive,
		"currentQuestion": 0,
	}, nil
}

// AdvanceQuestion moves to the next question and closes its reveal
// gate, so results stay hidden even if that question was revealed in a
// past run. On the last question it returns ErrNoMoreQuestions; the
// caller is expected to finish instead.
func AdvanceQuestion(s domain.Session) (domain.Mutation, error) {
	if err := requireActive(s); err != nil {
		return nil, err
	}
	next := s.CurrentQuestion + 1
	if next >= len(s.Questions) {
		return nil, domain.ErrNoMoreQuestions
	}
	return domain.Mutation{
		"currentQuestion": next,
		fmt.Sprintf("questions/%d/showResults", next): false,
	}, nil
}

// RevealQuestion opens the reveal gate for one question. Idempotent.
func RevealQuestion(s domain.Session, index int) (domain.Mutation, error) {
	if err := requireActive(s); err != nil {
		return nil, err
	}
	if index < 0 || index >= len(s.Questions) {
		return nil, domain.ErrInvalidQuestionIndex
	}
	return domain.Mutation{
		fmt.Sprintf("questions/%d/showResults", index): true,
	}, nil
}

// FinishQuiz ends the session. Terminal: no transition leaves finished.
func FinishQuiz(s domain.Session) (domain.Mutation, error) {
	if s.Status == domain.StatusFinished {
		return nil, domain.ErrSessionFinished
	}
	return domain.Mutation{"status": domain.StatusFinished}, nil
}

// JumpToQuestion selects a question directly, for admin navigation.
// Jumping is only allowed once the quiz is running. Unlike advance it
// does not touch the target's reveal gate.
func JumpToQuestion(s domain.Session, index int) (domain.Mutation, error) {
	if err := requireActive(s); err != nil {
		return nil, err
	}
	if index < 0 || index >= len(s.Questions) {
		return nil, domain.ErrInvalidQuestionIndex
	}
	return domain.Mutation{"currentQuestion": index}, nil
}

func requireActive(s domain.Session) error {
	switch s.Status {
	case domain.StatusFinished:
		return domain.ErrSessionFinished
	case domain.StatusActive:
		return nil
	default:
		return domain.ErrSessionNotActive
	}
}

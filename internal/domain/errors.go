package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no session exists for a code.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExists is returned when creating a session whose code is taken.
	ErrSessionExists = errors.New("session already exists")
	// ErrCodeCollision is returned when code generation keeps hitting live sessions.
	ErrCodeCollision = errors.New("could not allocate a unique session code")
	// ErrParticipantNotFound is returned when a user acts before joining.
	ErrParticipantNotFound = errors.New("participant not found in session")
	// ErrNotAuthorized is returned when a non-admin attempts an admin operation.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrEmptyQuestionSet rejects starting a quiz with no questions.
	ErrEmptyQuestionSet = errors.New("quiz has no questions")
	// ErrAlreadyStarted rejects starting a quiz twice.
	ErrAlreadyStarted = errors.New("quiz already started")
	// ErrSessionFinished rejects any transition on a finished session.
	ErrSessionFinished = errors.New("session is finished")
	// ErrSessionNotActive rejects operations that require a running quiz.
	ErrSessionNotActive = errors.New("session is not active")
	// ErrNoMoreQuestions is returned by advance on the last question.
	ErrNoMoreQuestions = errors.New("no more questions")
	// ErrInvalidQuestionIndex flags an index outside the question sequence.
	ErrInvalidQuestionIndex = errors.New("invalid question index")

	// ErrInvalidQuestion rejects a question that fails authoring validation.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrInvalidName rejects an empty or unusable display name.
	ErrInvalidName = errors.New("invalid name")
	// ErrAnswerKindMismatch rejects an answer whose shape does not match the question.
	ErrAnswerKindMismatch = errors.New("answer does not match question kind")
	// ErrInvalidOption rejects a choice or ranking index outside the question's options.
	ErrInvalidOption = errors.New("invalid option index")
	// ErrEmptyAnswer rejects an answer with no usable content.
	ErrEmptyAnswer = errors.New("empty answer")
	// ErrNotCurrentQuestion rejects answers to a question that is not live.
	ErrNotCurrentQuestion = errors.New("question is not the current one")

	// ErrSavedSessionNotFound is returned for an unknown archive id.
	ErrSavedSessionNotFound = errors.New("saved session not found")

	// ErrInvalidMutation flags a malformed mutation path or value type.
	ErrInvalidMutation = errors.New("invalid mutation")
)

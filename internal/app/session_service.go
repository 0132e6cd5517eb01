package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"quizlive-service/internal/domain"
)

// SessionStore abstracts the shared real-time session document tree
// (in-memory, Redis, etc). Apply must be atomic per mutation and must
// fan the updated snapshot out to all watchers.
type SessionStore interface {
	Create(ctx context.Context, s domain.Session) error
	Get(ctx context.Context, code string) (domain.Session, error)
	Apply(ctx context.Context, code string, m domain.Mutation) (domain.Session, error)
	Watch(ctx context.Context, code string) (<-chan domain.Session, func(), error)
}

// ArchiveRepository stores saved question sets for later restoration.
type ArchiveRepository interface {
	Save(ctx context.Context, saved domain.SavedSession) error
	Get(ctx context.Context, id string) (domain.SavedSession, error)
	List(ctx context.Context) ([]domain.SavedSession, error)
	Delete(ctx context.Context, id string) error
}

const (
	codeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength      = 6
	codeAttempts    = 5
	maxNameLength   = 30
	maxWordsTextLen = 200
)

// SessionService contains the live-quiz use cases. Core logic is pure;
// the service validates at the boundary, calls into the pure core and
// hands the resulting mutation to the store.
type SessionService struct {
	store   SessionStore
	archive ArchiveRepository
	adminID string
	now     func() time.Time
}

func NewSessionService(store SessionStore, archive ArchiveRepository, adminID string) *SessionService {
	return &SessionService{store: store, archive: archive, adminID: adminID, now: time.Now}
}

// NewSessionServiceWithClock is test-only for deterministic timestamps.
func NewSessionServiceWithClock(store SessionStore, archive ArchiveRepository, adminID string, now func() time.Time) *SessionService {
	return &SessionService{store: store, archive: archive, adminID: adminID, now: now}
}

// CreateSession allocates a fresh session in the waiting state. Code
// collisions are rare but possible; creation retries with new codes a
// few times before giving up.
func (s *SessionService) CreateSession(ctx context.Context, name, adminName string) (domain.Session, error) {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		session := domain.Session{
			Code:            generateCode(),
			Name:            strings.TrimSpace(name),
			Admin:           strings.TrimSpace(adminName),
			CreatedAt:       s.now(),
			Status:          domain.StatusWaiting,
			CurrentQuestion: -1,
		}
		err := s.store.Create(ctx, session)
		if errors.Is(err, domain.ErrSessionExists) {
			continue
		}
		if err != nil {
			return domain.Session{}, err
		}
		return session, nil
	}
	return domain.Session{}, domain.ErrCodeCollision
}

// Get returns the current snapshot for a session code.
func (s *SessionService) Get(ctx context.Context, code string) (domain.Session, error) {
	return s.store.Get(ctx, normalizeCode(code))
}

// Watch subscribes to snapshot updates for a session. The channel is
// closed when the session expires; the caller must invoke cancel.
func (s *SessionService) Watch(ctx context.Context, code string) (<-chan domain.Session, func(), error) {
	return s.store.Watch(ctx, normalizeCode(code))
}

// Join registers a participant. Rejoining with the same id overwrites
// the prior record, dropping its score and answers.
func (s *SessionService) Join(ctx context.Context, code, participantID, name string) (domain.Participant, error) {
	cleaned, err := sanitizeDisplayName(name)
	if err != nil {
		return domain.Participant{}, err
	}
	code = normalizeCode(code)
	if _, err := s.store.Get(ctx, code); err != nil {
		return domain.Participant{}, err
	}
	p := domain.Participant{
		ID:       participantID,
		Name:     cleaned,
		JoinedAt: s.now(),
	}
	if _, err := s.store.Apply(ctx, code, domain.Mutation{"participants/" + participantID: p}); err != nil {
		return domain.Participant{}, err
	}
	return p, nil
}

// SubmitChoice records an mcq/truefalse answer for the current question
// and rewrites the participant's score in the same atomic mutation. The
// score is recomputed from the full answers map, so resubmitting can
// never award twice.
func (s *SessionService) SubmitChoice(ctx context.Context, code, participantID string, questionIndex, choice int) (domain.AnswerResult, error) {
	session, q, p, err := s.submitTarget(ctx, code, participantID, questionIndex)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	if !choiceKind(q.Kind) {
		return domain.AnswerResult{}, domain.ErrAnswerKindMismatch
	}
	if choice < 0 || choice >= len(q.Options) {
		return domain.AnswerResult{}, domain.ErrInvalidOption
	}

	answer := domain.ChoiceAnswer(choice)
	answers := make(map[int]domain.Answer, len(p.Answers)+1)
	for i, a := range p.Answers {
		answers[i] = a
	}
	answers[questionIndex] = answer
	newScore := RecomputeScore(session.Questions, answers)

	m := domain.Mutation{
		fmt.Sprintf("participants/%s/answers/%d", participantID, questionIndex): answer,
		fmt.Sprintf("participants/%s/score", participantID):                     newScore,
	}
	if _, err := s.store.Apply(ctx, session.Code, m); err != nil {
		return domain.AnswerResult{}, err
	}
	return domain.AnswerResult{
		QuestionIndex: questionIndex,
		Correct:       choice == q.Correct,
		Awarded:       newScore - p.Score,
		TotalScore:    newScore,
	}, nil
}

// SubmitWords records a wordcloud answer. No score is awarded.
func (s *SessionService) SubmitWords(ctx context.Context, code, participantID string, questionIndex int, text string) (domain.AnswerResult, error) {
	session, q, p, err := s.submitTarget(ctx, code, participantID, questionIndex)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	if q.Kind != domain.KindWordCloud {
		return domain.AnswerResult{}, domain.ErrAnswerKindMismatch
	}
	cleaned := stripUnsafe(truncateRunes(strings.TrimSpace(text), maxWordsTextLen))
	if cleaned == "" {
		return domain.AnswerResult{}, domain.ErrEmptyAnswer
	}
	m := domain.Mutation{
		fmt.Sprintf("participants/%s/answers/%d", participantID, questionIndex): domain.TextAnswer(cleaned),
	}
	if _, err := s.store.Apply(ctx, session.Code, m); err != nil {
		return domain.AnswerResult{}, err
	}
	return domain.AnswerResult{QuestionIndex: questionIndex, TotalScore: p.Score}, nil
}

// SubmitRanking records an ordered-preference answer. No score is awarded.
func (s *SessionService) SubmitRanking(ctx context.Context, code, participantID string, questionIndex int, order []int) (domain.AnswerResult, error) {
	session, q, p, err := s.submitTarget(ctx, code, participantID, questionIndex)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	if q.Kind != domain.KindRanking {
		return domain.AnswerResult{}, domain.ErrAnswerKindMismatch
	}
	if len(order) == 0 {
		return domain.AnswerResult{}, domain.ErrEmptyAnswer
	}
	for _, itemIndex := range order {
		if itemIndex < 0 || itemIndex >= len(q.Items) {
			return domain.AnswerResult{}, domain.ErrInvalidOption
		}
	}
	m := domain.Mutation{
		fmt.Sprintf("participants/%s/answers/%d", participantID, questionIndex): domain.RankingAnswer(order),
	}
	if _, err := s.store.Apply(ctx, session.Code, m); err != nil {
		return domain.AnswerResult{}, err
	}
	return domain.AnswerResult{QuestionIndex: questionIndex, TotalScore: p.Score}, nil
}

func (s *SessionService) submitTarget(ctx context.Context, code, participantID string, questionIndex int) (domain.Session, domain.Question, domain.Participant, error) {
	session, err := s.store.Get(ctx, normalizeCode(code))
	if err != nil {
		return domain.Session{}, domain.Question{}, domain.Participant{}, err
	}
	if err := requireActive(session); err != nil {
		return domain.Session{}, domain.Question{}, domain.Participant{}, err
	}
	if questionIndex != session.CurrentQuestion {
		return domain.Session{}, domain.Question{}, domain.Participant{}, domain.ErrNotCurrentQuestion
	}
	p, ok := session.Participants[participantID]
	if !ok {
		return domain.Session{}, domain.Question{}, domain.Participant{}, domain.ErrParticipantNotFound
	}
	return session, session.Questions[questionIndex], p, nil
}

// Start launches the quiz at its first question.
func (s *SessionService) Start(ctx context.Context, actorID, code string) (domain.Session, error) {
	return s.transition(ctx, actorID, code, StartQuiz)
}

// Advance moves to the next question, hiding its results until revealed.
func (s *SessionService) Advance(ctx context.Context, actorID, code string) (domain.Session, error) {
	return s.transition(ctx, actorID, code, AdvanceQuestion)
}

// Reveal opens the results gate for one question.
func (s *SessionService) Reveal(ctx context.Context, actorID, code string, index int) (domain.Session, error) {
	return s.transition(ctx, actorID, code, func(session domain.Session) (domain.Mutation, error) {
		return RevealQuestion(session, index)
	})
}

// Finish ends the quiz permanently.
func (s *SessionService) Finish(ctx context.Context, actorID, code string) (domain.Session, error) {
	return s.transition(ctx, actorID, code, FinishQuiz)
}

// JumpTo selects a question directly.
func (s *SessionService) JumpTo(ctx context.Context, actorID, code string, index int) (domain.Session, error) {
	return s.transition(ctx, actorID, code, func(session domain.Session) (domain.Mutation, error) {
		return JumpToQuestion(session, index)
	})
}

// SetPresenterMode toggles the presenter window flag.
func (s *SessionService) SetPresenterMode(ctx context.Context, actorID, code string, enabled bool) (domain.Session, error) {
	return s.transition(ctx, actorID, code, func(domain.Session) (domain.Mutation, error) {
		return domain.Mutation{"presenterMode": enabled}, nil
	})
}

func (s *SessionService) transition(ctx context.Context, actorID, code string, op func(domain.Session) (domain.Mutation, error)) (domain.Session, error) {
	if err := s.requireAdmin(actorID); err != nil {
		return domain.Session{}, err
	}
	code = normalizeCode(code)
	session, err := s.store.Get(ctx, code)
	if err != nil {
		return domain.Session{}, err
	}
	m, err := op(session)
	if err != nil {
		return domain.Session{}, err
	}
	return s.store.Apply(ctx, code, m)
}

// AddQuestion validates and appends one question to the sequence.
func (s *SessionService) AddQuestion(ctx context.Context, actorID, code string, q domain.Question) (domain.Session, error) {
	prepared, err := s.prepareQuestion(q)
	if err != nil {
		return domain.Session{}, err
	}
	return s.transition(ctx, actorID, code, func(session domain.Session) (domain.Mutation, error) {
		questions := append(append([]domain.Question(nil), session.Questions...), prepared)
		return domain.Mutation{"questions": questions}, nil
	})
}

// ImportQuestions appends a pre-parsed batch (spreadsheet or slide
// import), preserving both existing and incoming order. The whole batch
// is validated before anything is written.
func (s *SessionService) ImportQuestions(ctx context.Context, actorID, code string, qs []domain.Question) (domain.Session, error) {
	prepared := make([]domain.Question, 0, len(qs))
	for _, q := range qs {
		p, err := s.prepareQuestion(q)
		if err != nil {
			return domain.Session{}, err
		}
		prepared = append(prepared, p)
	}
	return s.transition(ctx, actorID, code, func(session domain.Session) (domain.Mutation, error) {
		questions := append(append([]domain.Question(nil), session.Questions...), prepared...)
		return domain.Mutation{"questions": questions}, nil
	})
}

// DeleteQuestion removes one question, shifting the rest down.
func (s *SessionService) DeleteQuestion(ctx context.Context, actorID, code string, index int) (domain.Session, error) {
	return s.transition(ctx, actorID, code, func(session domain.Session) (domain.Mutation, error) {
		if index < 0 || index >= len(session.Questions) {
			return nil, domain.ErrInvalidQuestionIndex
		}
		questions := append([]domain.Question(nil), session.Questions...)
		questions = append(questions[:index], questions[index+1:]...)
		return domain.Mutation{"questions": questions}, nil
	})
}

// ReorderQuestions moves the question at from to position to, the
// drag-and-drop contract. Assumes a single admin actor; concurrent
// reorders are last-writer-wins.
func (s *SessionService) ReorderQuestions(ctx context.Context, actorID, code string, from, to int) (domain.Session, error) {
	return s.transition(ctx, actorID, code, func(session domain.Session) (domain.Mutation, error) {
		n := len(session.Questions)
		if from < 0 || from >= n || to < 0 || to >= n {
			return nil, domain.ErrInvalidQuestionIndex
		}
		questions := append([]domain.Question(nil), session.Questions...)
		moved := questions[from]
		questions = append(questions[:from], questions[from+1:]...)
		questions = append(questions[:to], append([]domain.Question{moved}, questions[to:]...)...)
		return domain.Mutation{"questions": questions}, nil
	})
}

func (s *SessionService) prepareQuestion(q domain.Question) (domain.Question, error) {
	q.CreatedAt = s.now()
	q.ShowResults = false
	q.Text = strings.TrimSpace(q.Text)
	switch q.Kind {
	case domain.KindMCQ:
		if q.Text == "" {
			return domain.Question{}, fmt.Errorf("%w: question text required", domain.ErrInvalidQuestion)
		}
		if len(q.Options) < 2 || len(q.Options) > 4 {
			return domain.Question{}, fmt.Errorf("%w: mcq needs 2 to 4 options", domain.ErrInvalidQuestion)
		}
		if q.Correct < 0 || q.Correct >= len(q.Options) {
			return domain.Question{}, fmt.Errorf("%w: correct option out of range", domain.ErrInvalidQuestion)
		}
	case domain.KindTrueFalse:
		if q.Text == "" {
			return domain.Question{}, fmt.Errorf("%w: question text required", domain.ErrInvalidQuestion)
		}
		q.Options = append([]string(nil), domain.TrueFalseOptions...)
		if q.Correct != 0 && q.Correct != 1 {
			return domain.Question{}, fmt.Errorf("%w: correct option out of range", domain.ErrInvalidQuestion)
		}
	case domain.KindWordCloud:
		if q.Text == "" {
			return domain.Question{}, fmt.Errorf("%w: question text required", domain.ErrInvalidQuestion)
		}
	case domain.KindRanking:
		if q.Text == "" {
			return domain.Question{}, fmt.Errorf("%w: question text required", domain.ErrInvalidQuestion)
		}
		if len(q.Items) < 2 {
			return domain.Question{}, fmt.Errorf("%w: ranking needs at least 2 items", domain.ErrInvalidQuestion)
		}
	case domain.KindSlide:
		if strings.TrimSpace(q.Name) == "" {
			return domain.Question{}, fmt.Errorf("%w: slide name required", domain.ErrInvalidQuestion)
		}
	default:
		return domain.Question{}, fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidQuestion, q.Kind)
	}
	return q, nil
}

// SaveSession archives the session's current question set.
func (s *SessionService) SaveSession(ctx context.Context, actorID, code string) (domain.SavedSession, error) {
	if err := s.requireAdmin(actorID); err != nil {
		return domain.SavedSession{}, err
	}
	session, err := s.store.Get(ctx, normalizeCode(code))
	if err != nil {
		return domain.SavedSession{}, err
	}
	saved := domain.SavedSession{
		ID:        uuid.NewString(),
		Name:      session.Name,
		Questions: session.Questions,
		SavedAt:   s.now(),
	}
	if err := s.archive.Save(ctx, saved); err != nil {
		return domain.SavedSession{}, err
	}
	return saved, nil
}

// ListSaved returns the archived question sets.
func (s *SessionService) ListSaved(ctx context.Context, actorID string) ([]domain.SavedSession, error) {
	if err := s.requireAdmin(actorID); err != nil {
		return nil, err
	}
	return s.archive.List(ctx)
}

// RestoreSession replaces a live session's questions with an archived set.
func (s *SessionService) RestoreSession(ctx context.Context, actorID, code, saveID string) (domain.Session, error) {
	if err := s.requireAdmin(actorID); err != nil {
		return domain.Session{}, err
	}
	saved, err := s.archive.Get(ctx, saveID)
	if err != nil {
		return domain.Session{}, err
	}
	return s.transition(ctx, actorID, code, func(domain.Session) (domain.Mutation, error) {
		return domain.Mutation{"questions": saved.Questions}, nil
	})
}

// DeleteSaved removes an archived question set.
func (s *SessionService) DeleteSaved(ctx context.Context, actorID, id string) error {
	if err := s.requireAdmin(actorID); err != nil {
		return err
	}
	return s.archive.Delete(ctx, id)
}

// IsAdmin reports whether the actor matches the configured admin identity.
func (s *SessionService) IsAdmin(actorID string) bool {
	return actorID != "" && actorID == s.adminID
}

func (s *SessionService) requireAdmin(actorID string) error {
	if !s.IsAdmin(actorID) {
		return domain.ErrNotAuthorized
	}
	return nil
}

func generateCode() string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// sanitizeDisplayName truncates to 30 runes and strips HTML-special
// characters; a name that ends up empty is rejected.
func sanitizeDisplayName(name string) (string, error) {
	cleaned := stripUnsafe(truncateRunes(strings.TrimSpace(name), maxNameLength))
	if cleaned == "" {
		return "", domain.ErrInvalidName
	}
	return cleaned, nil
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

func stripUnsafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '"', '\'', '&':
			return -1
		}
		return r
	}, s)
}

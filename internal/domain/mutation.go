package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Mutation is an intended partial update to a session document: a set
// of slash-separated field paths mapped to replacement values, applied
// atomically by the store. Paths mirror the document tree:
//
//	status                           SessionStatus
//	currentQuestion                  int
//	presenterMode                    bool
//	name                             string
//	questions                        []Question
//	questions/{i}/showResults        bool
//	participants/{id}                Participant
//	participants/{id}/score          int
//	participants/{id}/answers/{i}    Answer
//
// The core produces mutations as pure values; only the store applies them.
type Mutation map[string]any

// Apply returns a new session with the mutation applied. The input is
// never modified. A bad path or value type is a programming error in
// the caller and is reported as ErrInvalidMutation.
func Apply(s Session, m Mutation) (Session, error) {
	out := s.Clone()
	for path, value := range m {
		if err := setPath(&out, path, value); err != nil {
			return Session{}, err
		}
	}
	return out, nil
}

func setPath(s *Session, path string, value any) error {
	parts := strings.Split(path, "/")
	switch parts[0] {
	case "status":
		return assign(path, value, func(v SessionStatus) { s.Status = v })
	case "currentQuestion":
		return assign(path, value, func(v int) { s.CurrentQuestion = v })
	case "presenterMode":
		return assign(path, value, func(v bool) { s.PresenterMode = v })
	case "name":
		return assign(path, value, func(v string) { s.Name = v })
	case "questions":
		if len(parts) == 1 {
			return assign(path, value, func(v []Question) {
				s.Questions = make([]Question, len(v))
				copy(s.Questions, v)
			})
		}
		if len(parts) != 3 || parts[2] != "showResults" {
			return badPath(path)
		}
		i, err := strconv.Atoi(parts[1])
		if err != nil || i < 0 || i >= len(s.Questions) {
			return badPath(path)
		}
		return assign(path, value, func(v bool) { s.Questions[i].ShowResults = v })
	case "participants":
		if len(parts) < 2 {
			return badPath(path)
		}
		id := parts[1]
		if len(parts) == 2 {
			return assign(path, value, func(v Participant) {
				if s.Participants == nil {
					s.Participants = make(map[string]Participant)
				}
				s.Participants[id] = v.clone()
			})
		}
		p, ok := s.Participants[id]
		if !ok {
			return fmt.Errorf("%w: %s: %s", ErrInvalidMutation, path, ErrParticipantNotFound)
		}
		switch {
		case len(parts) == 3 && parts[2] == "score":
			return assign(path, value, func(v int) {
				p.Score = v
				s.Participants[id] = p
			})
		case len(parts) == 4 && parts[2] == "answers":
			i, err := strconv.Atoi(parts[3])
			if err != nil || i < 0 {
				return badPath(path)
			}
			return assign(path, value, func(v Answer) {
				if p.Answers == nil {
					p.Answers = make(map[int]Answer)
				}
				p.Answers[i] = v
				s.Participants[id] = p
			})
		}
		return badPath(path)
	}
	return badPath(path)
}

func assign[T any](path string, value any, set func(T)) error {
	v, ok := value.(T)
	if !ok {
		return fmt.Errorf("%w: %s: unexpected value type %T", ErrInvalidMutation, path, value)
	}
	set(v)
	return nil
}

func badPath(path string) error {
	return fmt.Errorf("%w: unknown path %q", ErrInvalidMutation, path)
}

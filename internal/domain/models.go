package domain

import "time"

// SessionStatus tracks the lifecycle of a quiz session.
type SessionStatus string

const (
	StatusWaiting  SessionStatus = "waiting"
	StatusActive   SessionStatus = "active"
	StatusFinished SessionStatus = "finished"
)

// QuestionKind discriminates the question variants.
type QuestionKind string

const (
	KindMCQ       QuestionKind = "mcq"
	KindTrueFalse QuestionKind = "truefalse"
	KindWordCloud QuestionKind = "wordcloud"
	KindRanking   QuestionKind = "ranking"
	KindSlide     QuestionKind = "slide"
)

// TrueFalseOptions are the fixed labels for truefalse questions.
var TrueFalseOptions = []string{"True", "False"}

// Question is a tagged variant over the five question kinds.
// Options/Correct are meaningful for mcq and truefalse, Items for
// ranking, Name/ImageData for slides.
type Question struct {
	Kind        QuestionKind `json:"type"`
	Text        string       `json:"text,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	ShowResults bool         `json:"showResults,omitempty"`
	Options     []string     `json:"options,omitempty"`
	Correct     int          `json:"correct"`
	Items       []string     `json:"items,omitempty"`
	Name        string       `json:"name,omitempty"`
	ImageData   string       `json:"imageData,omitempty"`
}

// Interactive reports whether participants submit anything for this question.
func (q Question) Interactive() bool {
	return q.Kind != KindSlide
}

// Answer holds one participant's response to one question. Exactly one
// field is set, matching the question kind: Choice for mcq/truefalse,
// Text for wordcloud, Ranking for ranking.
type Answer struct {
	Choice  *int   `json:"choice,omitempty"`
	Text    string `json:"text,omitempty"`
	Ranking []int  `json:"ranking,omitempty"`
}

// ChoiceAnswer builds an answer selecting option index i.
func ChoiceAnswer(i int) Answer {
	return Answer{Choice: &i}
}

// TextAnswer builds a free-text (wordcloud) answer.
func TextAnswer(text string) Answer {
	return Answer{Text: text}
}

// RankingAnswer builds an ordered-preference answer.
func RankingAnswer(order []int) Answer {
	return Answer{Ranking: order}
}

// Participant is one joined player.
type Participant struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	JoinedAt time.Time      `json:"joinedAt"`
	Score    int            `json:"score"`
	Answers  map[int]Answer `json:"answers,omitempty"`
}

// Session is the root document for one quiz run, keyed by Code.
// CurrentQuestion is -1 until the quiz starts.
type Session struct {
	Code            string                 `json:"code"`
	Name            string                 `json:"name"`
	Admin           string                 `json:"admin"`
	CreatedAt       time.Time              `json:"createdAt"`
	Status          SessionStatus          `json:"status"`
	CurrentQuestion int                    `json:"currentQuestion"`
	Questions       []Question             `json:"questions,omitempty"`
	Participants    map[string]Participant `json:"participants,omitempty"`
	PresenterMode   bool                   `json:"presenterMode"`
}

// Clone returns a deep copy so callers can mutate without aliasing the
// stored snapshot.
func (s Session) Clone() Session {
	out := s
	if s.Questions != nil {
		out.Questions = make([]Question, len(s.Questions))
		copy(out.Questions, s.Questions)
		for i, q := range s.Questions {
			if q.Options != nil {
				out.Questions[i].Options = append([]string(nil), q.Options...)
			}
			if q.Items != nil {
				out.Questions[i].Items = append([]string(nil), q.Items...)
			}
		}
	}
	if s.Participants != nil {
		out.Participants = make(map[string]Participant, len(s.Participants))
		for id, p := range s.Participants {
			out.Participants[id] = p.clone()
		}
	}
	return out
}

func (p Participant) clone() Participant {
	out := p
	if p.Answers != nil {
		out.Answers = make(map[int]Answer, len(p.Answers))
		for i, a := range p.Answers {
			if a.Ranking != nil {
				a.Ranking = append([]int(nil), a.Ranking...)
			}
			if a.Choice != nil {
				c := *a.Choice
				a.Choice = &c
			}
			out.Answers[i] = a
		}
	}
	return out
}

// SavedSession is an archived question set for later restoration.
type SavedSession struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Questions []Question `json:"questions,omitempty"`
	SavedAt   time.Time  `json:"savedAt"`
}

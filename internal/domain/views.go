package domain

// ChoiceSummary is the live aggregate for an mcq/truefalse question.
// Percents are rounded per option and are not normalized to sum to 100.
type ChoiceSummary struct {
	Counts   []int `json:"counts"`
	Total    int   `json:"total"`
	Percents []int `json:"percents"`
}

// WordCount is one token of a word cloud with its frequency.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// WordCloudSummary is the frequency table for a wordcloud question,
// truncated to the viewer's word limit.
type WordCloudSummary struct {
	Words []WordCount `json:"words"`
}

// RankedItem is one ranking item with its accumulated preference score.
type RankedItem struct {
	Index int    `json:"index"`
	Item  string `json:"item"`
	Score int    `json:"score"`
}

// RankingSummary lists items by descending preference score.
type RankingSummary struct {
	Items         []RankedItem `json:"items"`
	ResponseCount int          `json:"responseCount"`
}

// QuestionResults bundles the aggregate for one question; exactly one
// of the summaries is set, matching the question kind. Slides have no
// results.
type QuestionResults struct {
	Index     int               `json:"index"`
	Kind      QuestionKind      `json:"kind"`
	Choice    *ChoiceSummary    `json:"choice,omitempty"`
	WordCloud *WordCloudSummary `json:"wordCloud,omitempty"`
	Ranking   *RankingSummary   `json:"ranking,omitempty"`
}

// LeaderboardEntry is a snapshot-friendly view of a participant.
type LeaderboardEntry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Answered int    `json:"answered"`
}

// AnswerResult summarizes the outcome of a submission for one participant.
type AnswerResult struct {
	QuestionIndex int  `json:"questionIndex"`
	Correct       bool `json:"correct"`
	Awarded       int  `json:"awarded"`
	TotalScore    int  `json:"totalScore"`
}

// PlayerQuestion is a question stripped for player/presenter display:
// the correct option is withheld until the reveal gate opens.
type PlayerQuestion struct {
	Kind        QuestionKind `json:"type"`
	Text        string       `json:"text,omitempty"`
	Options     []string     `json:"options,omitempty"`
	Items       []string     `json:"items,omitempty"`
	Name        string       `json:"name,omitempty"`
	ImageData   string       `json:"imageData,omitempty"`
	ShowResults bool         `json:"showResults"`
}

// AdminView is everything the session admin renders: full question
// content and live aggregates regardless of the reveal gate.
type AdminView struct {
	Code            string             `json:"code"`
	Name            string             `json:"name"`
	Status          SessionStatus      `json:"status"`
	CurrentQuestion int                `json:"currentQuestion"`
	Questions       []Question         `json:"questions,omitempty"`
	Participants    []LeaderboardEntry `json:"participants,omitempty"`
	Leaderboard     []LeaderboardEntry `json:"leaderboard,omitempty"`
	Results         *QuestionResults   `json:"results,omitempty"`
	PresenterMode   bool               `json:"presenterMode"`
}

// PlayerView is what one participant renders: the current question
// only, with correctness and aggregates hidden until reveal.
type PlayerView struct {
	Code            string             `json:"code"`
	Status          SessionStatus      `json:"status"`
	CurrentQuestion int                `json:"currentQuestion"`
	QuestionCount   int                `json:"questionCount"`
	Question        *PlayerQuestion    `json:"question,omitempty"`
	YourAnswer      *Answer            `json:"yourAnswer,omitempty"`
	Revealed        bool               `json:"revealed"`
	CorrectOption   *int               `json:"correctOption,omitempty"`
	YourCorrect     *bool              `json:"yourCorrect,omitempty"`
	Results         *QuestionResults   `json:"results,omitempty"`
	Score           int                `json:"score"`
	Rank            int                `json:"rank,omitempty"`
	Leaderboard     []LeaderboardEntry `json:"leaderboard,omitempty"`
}

// PresenterView mirrors the admin's aggregate view for public display
// without exposing participant identities.
type PresenterView struct {
	Code             string           `json:"code"`
	Name             string           `json:"name"`
	Status           SessionStatus    `json:"status"`
	CurrentQuestion  int              `json:"currentQuestion"`
	QuestionCount    int              `json:"questionCount"`
	Question         *PlayerQuestion  `json:"question,omitempty"`
	Results          *QuestionResults `json:"results,omitempty"`
	ParticipantCount int              `json:"participantCount"`
}

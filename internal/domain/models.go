package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// HostDisplayName is the name every host is shown under.
const HostDisplayName = "Host"

// Role is fixed when a participant joins.
type Role string

const (
	RoleHost       Role = "host"
	RoleContestant Role = "contestant"
)

// Participant represents a connected player and their accumulated score.
type Participant struct {
	ID          string
	DisplayName string
	Role        Role
	Score       int
	JoinedAt    time.Time
}

func (p Participant) IsHost() bool {
	return p.Role == RoleHost
}

// PlayerEntry is the outward view of a contestant.
type PlayerEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Question is one prompt with a numeric target.
type Question struct {
	Prompt string  `json:"question"`
	Target float64 `json:"answer"`
}

// UnmarshalJSON accepts the target either as a number or as a numeric string.
func (q *Question) UnmarshalJSON(data []byte) error {
	var raw struct {
		Prompt string          `json:"question"`
		Target json.RawMessage `json:"answer"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if strings.TrimSpace(raw.Prompt) == "" {
		return fmt.Errorf("question prompt is empty")
	}
	target, err := ParseNumber(raw.Target)
	if err != nil {
		return fmt.Errorf("question %q: %w", raw.Prompt, err)
	}
	q.Prompt = raw.Prompt
	q.Target = target
	return nil
}

// QuestionSet is an ordered collection of questions.
type QuestionSet struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
}

// ParseQuestions decodes a JSON array of {question, answer} objects.
func ParseQuestions(data []byte) ([]Question, error) {
	var questions []Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuestions, err)
	}
	if len(questions) == 0 {
		return nil, ErrInvalidQuestions
	}
	return questions, nil
}

// ParseNumber reads a finite number from a JSON number or a JSON string.
func ParseNumber(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, ErrInvalidAnswer
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, ErrInvalidAnswer
		}
	}
	return ParseAnswer(text)
}

// ParseAnswer parses free-form answer text into a finite number.
func ParseAnswer(text string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, ErrInvalidAnswer
	}
	return value, nil
}

// Submission is the latest answer a participant gave for the active question.
type Submission struct {
	ParticipantID string
	DisplayName   string
	Answer        float64
}

// RankedAnswer is a submission as shown in a round result.
type RankedAnswer struct {
	Name   string  `json:"name"`
	Answer float64 `json:"answer"`
}

// SubmittedAnswer mirrors the raw submission map sent with a round result.
type SubmittedAnswer struct {
	Answer float64 `json:"answer"`
	Name   string  `json:"name"`
}

// RoundResult is derived once per evaluated question.
type RoundResult struct {
	QuestionIndex    int                        `json:"questionIndex"`
	CorrectAnswer    float64                    `json:"correctAnswer"`
	Winners          []string                   `json:"winners"`
	AwardedPoints    map[string]int             `json:"awardedPoints"`
	NonExceeding     []RankedAnswer             `json:"nonExceeding"`
	Exceeding        []RankedAnswer             `json:"exceeding"`
	Leaderboard      []PlayerEntry              `json:"leaderboard"`
	SubmittedAnswers map[string]SubmittedAnswer `json:"submittedAnswers"`
}

// GameSummary is broadcast when the question set runs out.
type GameSummary struct {
	Leaderboard []PlayerEntry `json:"leaderboard"`
	Winners     []string      `json:"winners"`
}

// RoomSnapshot is a read-only view of a session for HTTP callers.
type RoomSnapshot struct {
	Room          string        `json:"room"`
	Phase         string        `json:"phase"`
	QuestionIndex int           `json:"questionIndex"`
	Total         int           `json:"total"`
	HasHost       bool          `json:"hasHost"`
	Contestants   []PlayerEntry `json:"contestants"`
}

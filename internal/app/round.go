package app

import (
	"estimation-quiz-service/internal/domain"
)

// RoundState is the lifecycle of the active question.
type RoundState string

const (
	RoundIdle       RoundState = "idle"
	RoundCollecting RoundState = "collecting"
	RoundEvaluated  RoundState = "evaluated"
)

// round holds the active question and the answers collected for it.
// Callers hold the session lock.
type round struct {
	state       RoundState
	index       int
	question    domain.Question
	submissions map[string]domain.Submission
	order       []string
}

func newRound() *round {
	return &round{
		state:       RoundIdle,
		index:       -1,
		submissions: make(map[string]domain.Submission),
	}
}

// activate makes q the active question and drops every earlier submission.
func (r *round) activate(index int, q domain.Question) {
	r.state = RoundCollecting
	r.index = index
	r.question = q
	r.submissions = make(map[string]domain.Submission)
	r.order = r.order[:0]
}

func (r *round) reset() {
	r.state = RoundIdle
	r.index = -1
	r.question = domain.Question{}
	r.submissions = make(map[string]domain.Submission)
	r.order = r.order[:0]
}

// submit records raw as the participant's answer. The last submission wins.
func (r *round) submit(participantID, displayName, raw string) (float64, error) {
	switch r.state {
	case RoundIdle:
		return 0, domain.ErrNoActiveQuestion
	case RoundEvaluated:
		return 0, domain.ErrRoundClosed
	}
	answer, err := domain.ParseAnswer(raw)
	if err != nil {
		return 0, err
	}
	if _, ok := r.submissions[participantID]; !ok {
		r.order = append(r.order, participantID)
	}
	r.submissions[participantID] = domain.Submission{
		ParticipantID: participantID,
		DisplayName:   displayName,
		Answer:        answer,
	}
	return answer, nil
}

// evaluate ranks the collected answers. A question can be evaluated once.
func (r *round) evaluate() (scoredRound, error) {
	switch r.state {
	case RoundIdle:
		return scoredRound{}, domain.ErrNoActiveQuestion
	case RoundEvaluated:
		return scoredRound{}, domain.ErrRoundAlreadyEvaluated
	}
	scored := scoreRound(r.question.Target, r.orderedSubmissions())
	r.state = RoundEvaluated
	return scored, nil
}

func (r *round) orderedSubmissions() []domain.Submission {
	subs := make([]domain.Submission, 0, len(r.order))
	for _, id := range r.order {
		subs = append(subs, r.submissions[id])
	}
	return subs
}

func (r *round) submittedAnswers() map[string]domain.SubmittedAnswer {
	out := make(map[string]domain.SubmittedAnswer, len(r.submissions))
	for id, sub := range r.submissions {
		out[id] = domain.SubmittedAnswer{Answer: sub.Answer, Name: sub.DisplayName}
	}
	return out
}

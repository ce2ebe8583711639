package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"estimation-quiz-service/internal/domain"
)

// Phase is the game-level state of a session.
type Phase string

const (
	PhaseLobby      Phase = "lobby"
	PhaseInProgress Phase = "in_progress"
	PhaseEnded      Phase = "ended"
)

// Session is one room: its participants, question set, and active round.
// Every command runs under mu, and events are emitted before it is released.
type Session struct {
	id        string
	createdAt time.Time
	now       func() time.Time

	mu        sync.Mutex
	phase     Phase
	questions []domain.Question
	cursor    int
	registry  *registry
	round     *round

	fanout *fanout
	extra  Emitter
}

func newSession(id string, questions []domain.Question) *Session {
	return newSessionWithClock(id, questions, time.Now)
}

// newSessionWithClock allows deterministic timestamps in tests.
func newSessionWithClock(id string, questions []domain.Question, now func() time.Time) *Session {
	return &Session{
		id:        id,
		createdAt: now(),
		now:       now,
		phase:     PhaseLobby,
		questions: append([]domain.Question(nil), questions...),
		cursor:    -1,
		registry:  newRegistry(now),
		round:     newRound(),
		fanout:    newFanout(),
	}
}

func (s *Session) ID() string {
	return s.id
}

// Handle is the single command intake for a session. Rejected commands return
// an error and the sender receives a private error event; the session itself
// is never left in a broken state.
func (s *Session) Handle(cmd domain.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	switch cmd.Type {
	case domain.CmdJoin:
		err = s.joinLocked(cmd)
	case domain.CmdStartGame:
		err = s.startGameLocked(cmd.ParticipantID)
	case domain.CmdNextQuestion:
		err = s.nextQuestionLocked(cmd.ParticipantID)
	case domain.CmdSubmitAnswer:
		err = s.submitAnswerLocked(cmd.ParticipantID, cmd.Answer)
	case domain.CmdEvaluateRound:
		err = s.evaluateRoundLocked(cmd.ParticipantID)
	case domain.CmdDisconnect:
		s.disconnectLocked(cmd.ParticipantID)
	default:
		err = domain.ErrUnsupportedCommand
	}
	if err != nil {
		s.emitErrorLocked(cmd.ParticipantID, err)
	}
	return err
}

func (s *Session) joinLocked(cmd domain.Command) error {
	role := domain.RoleContestant
	if cmd.IsHost {
		role = domain.RoleHost
		if hostID, ok := s.registry.hostID(); ok && hostID != cmd.ParticipantID {
			return domain.ErrHostTaken
		}
	}

	participant, err := s.registry.join(cmd.ParticipantID, role, cmd.Name)
	if err != nil {
		return err
	}
	s.emitLocked(domain.Event{
		Type: domain.EvtJoined,
		To:   participant.ID,
		Payload: domain.JoinedPayload{
			ID:    participant.ID,
			Name:  participant.DisplayName,
			Role:  participant.Role,
			Phase: string(s.phase),
		},
	})

	if !participant.IsHost() {
		s.broadcastPlayersLocked()
		return nil
	}

	s.emitLocked(domain.Event{
		Type:    domain.EvtPlayersUpdate,
		To:      participant.ID,
		Payload: domain.PlayersPayload{Players: s.registry.contestants()},
	})
	if hasCustomQuestions(cmd.CustomQuestions) {
		// The join itself has succeeded; a bad override only earns the host an error event.
		if err := s.replaceQuestionsLocked(cmd.CustomQuestions); err != nil {
			s.emitErrorLocked(participant.ID, err)
			return nil
		}
		s.emitMessageLocked(participant.ID, fmt.Sprintf("Custom questions loaded (%d).", len(s.questions)))
	}
	return nil
}

func hasCustomQuestions(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null")) && !bytes.Equal(raw, []byte(`""`))
}

func (s *Session) replaceQuestionsLocked(raw json.RawMessage) error {
	if s.phase != PhaseLobby {
		return domain.ErrGameInProgress
	}
	data := raw
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		data = []byte(text)
	}
	questions, err := domain.ParseQuestions(data)
	if err != nil {
		return err
	}
	s.questions = questions
	return nil
}

func (s *Session) startGameLocked(senderID string) error {
	if !s.registry.isHost(senderID) {
		return domain.ErrPermissionDenied
	}
	s.registry.resetScores()
	s.cursor = -1
	s.round.reset()
	s.phase = PhaseInProgress
	s.broadcastPlayersLocked()
	s.emitMessageLocked(senderID, "Game started!")
	return nil
}

func (s *Session) nextQuestionLocked(senderID string) error {
	if !s.registry.isHost(senderID) {
		return domain.ErrPermissionDenied
	}
	if s.phase != PhaseInProgress {
		return domain.ErrGameNotInProgress
	}

	s.cursor++
	if s.cursor >= len(s.questions) {
		s.round.reset()
		s.phase = PhaseEnded
		board := s.registry.leaderboard()
		s.emitMessageLocked("", "No more questions. End of game.")
		s.emitLocked(domain.Event{
			Type:    domain.EvtGameEnded,
			Payload: domain.GameSummary{Leaderboard: board, Winners: topScorers(board)},
		})
		return nil
	}

	question := s.questions[s.cursor]
	s.round.activate(s.cursor, question)
	s.emitLocked(domain.Event{
		Type: domain.EvtNewQuestion,
		Payload: domain.QuestionPayload{
			Question: question.Prompt,
			Index:    s.cursor + 1,
			Total:    len(s.questions),
		},
	})
	return nil
}

func (s *Session) submitAnswerLocked(senderID, raw string) error {
	participant, ok := s.registry.get(senderID)
	if !ok {
		return domain.ErrParticipantNotFound
	}
	answer, err := s.round.submit(participant.ID, participant.DisplayName, raw)
	if err != nil {
		return err
	}
	s.emitMessageLocked(senderID, fmt.Sprintf("Your answer of %s is submitted.", strconv.FormatFloat(answer, 'f', -1, 64)))
	s.emitLocked(domain.Event{
		Type:    domain.EvtAnswerAccepted,
		To:      senderID,
		Payload: domain.AnswerPayload{QuestionIndex: s.round.index + 1, Answer: answer},
	})
	return nil
}

func (s *Session) evaluateRoundLocked(senderID string) error {
	if !s.registry.isHost(senderID) {
		return domain.ErrPermissionDenied
	}
	scored, err := s.round.evaluate()
	if err != nil {
		return err
	}
	applied := s.registry.award(scored.points)

	s.emitLocked(domain.Event{
		Type: domain.EvtRoundResult,
		Payload: domain.RoundResult{
			QuestionIndex:    s.round.index + 1,
			CorrectAnswer:    s.round.question.Target,
			Winners:          scored.winners,
			AwardedPoints:    applied,
			NonExceeding:     displayAnswers(scored.nonExceeding),
			Exceeding:        displayAnswers(scored.exceeding),
			Leaderboard:      s.registry.leaderboard(),
			SubmittedAnswers: s.round.submittedAnswers(),
		},
	})
	s.broadcastPlayersLocked()
	return nil
}

func (s *Session) disconnectLocked(id string) {
	s.registry.remove(id)
	s.broadcastPlayersLocked()
}

func (s *Session) broadcastPlayersLocked() {
	s.emitLocked(domain.Event{
		Type:    domain.EvtPlayersUpdate,
		Payload: domain.PlayersPayload{Players: s.registry.contestants()},
	})
}

func (s *Session) emitMessageLocked(to, text string) {
	s.emitLocked(domain.Event{Type: domain.EvtMessage, To: to, Payload: domain.MessagePayload{Text: text}})
}

func (s *Session) emitErrorLocked(to string, err error) {
	if to == "" {
		return
	}
	s.emitLocked(domain.Event{
		Type:    domain.EvtError,
		To:      to,
		Payload: domain.ErrorPayload{Code: domain.Code(err), Message: err.Error()},
	})
}

func (s *Session) emitLocked(ev domain.Event) {
	s.fanout.Emit(ev)
	if s.extra != nil {
		s.extra.Emit(ev)
	}
}

// Subscribe attaches a connection to the session's event stream. Stores call
// it while holding their own lock so a room cannot be dropped mid-attach.
func (s *Session) Subscribe(connID string) <-chan domain.Event {
	return s.fanout.subscribe(connID)
}

func (s *Session) Unsubscribe(connID string) {
	s.fanout.unsubscribe(connID)
}

// IsEmpty reports whether nobody is joined or listening.
func (s *Session) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.isEmpty() && s.fanout.size() == 0
}

// Snapshot returns a consistent read-only view of the room.
func (s *Session) Snapshot() domain.RoomSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, hasHost := s.registry.hostID()
	return domain.RoomSnapshot{
		Room:          s.id,
		Phase:         string(s.phase),
		QuestionIndex: s.round.index + 1,
		Total:         len(s.questions),
		HasHost:       hasHost,
		Contestants:   s.registry.leaderboard(),
	}
}

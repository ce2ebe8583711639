package domain

import "encoding/json"

// CommandType names an inbound client command.
type CommandType string

const (
	CmdJoin          CommandType = "join"
	CmdStartGame     CommandType = "startGame"
	CmdNextQuestion  CommandType = "nextQuestion"
	CmdSubmitAnswer  CommandType = "submitAnswer"
	CmdEvaluateRound CommandType = "evaluateRound"
	CmdDisconnect    CommandType = "disconnect"
)

// Command is a single request from a participant connection.
type Command struct {
	Type          CommandType
	ParticipantID string

	// join
	IsHost          bool
	Name            string
	CustomQuestions json.RawMessage

	// submitAnswer
	Answer string
}

// EventType names an outbound event.
type EventType string

const (
	EvtJoined         EventType = "joined"
	EvtPlayersUpdate  EventType = "playersUpdate"
	EvtNewQuestion    EventType = "newQuestion"
	EvtMessage        EventType = "message"
	EvtAnswerAccepted EventType = "answerAccepted"
	EvtRoundResult    EventType = "roundResult"
	EvtGameEnded      EventType = "gameEnded"
	EvtError          EventType = "error"
)

// Event is emitted by a session. An empty To means broadcast.
type Event struct {
	Type    EventType
	To      string
	Payload any
}

// Private reports whether the event targets a single participant.
func (e Event) Private() bool {
	return e.To != ""
}

type JoinedPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Phase string `json:"phase"`
}

type PlayersPayload struct {
	Players []PlayerEntry `json:"players"`
}

type QuestionPayload struct {
	Question string `json:"question"`
	Index    int    `json:"index"`
	Total    int    `json:"total"`
}

type MessagePayload struct {
	Text string `json:"text"`
}

type AnswerPayload struct {
	QuestionIndex int     `json:"questionIndex"`
	Answer        float64 `json:"answer"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

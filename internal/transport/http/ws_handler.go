package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"estimation-quiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// GameService is the slice of the application layer the gateway drives.
type GameService interface {
	Connect(ctx context.Context, roomID, connID string) (<-chan domain.Event, error)
	Dispatch(ctx context.Context, roomID string, cmd domain.Command) error
	Disconnect(ctx context.Context, roomID, connID string)
	Snapshot(ctx context.Context, roomID string) (domain.RoomSnapshot, error)
}

type WSHandler struct {
	service     GameService
	defaultRoom string
	log         *zap.Logger
	upgrader    websocket.Upgrader
}

func NewWSHandler(service GameService, defaultRoom string, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{
		service:     service,
		defaultRoom: defaultRoom,
		log:         log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinPayload struct {
	IsHost          bool            `json:"isHost"`
	Name            string          `json:"name"`
	CustomQuestions json.RawMessage `json:"customQuestions"`
}

type submitPayload struct {
	Answer json.RawMessage `json:"answer"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

const codeBadPayload = "bad_payload"

// ServeWS upgrades the request and bridges one connection to a room session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomID := strings.TrimSpace(r.URL.Query().Get("room"))
	if roomID == "" {
		roomID = h.defaultRoom
	}
	if roomID == "" {
		http.Error(w, "missing room", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	log := h.log.With(zap.String("room", roomID), zap.String("participant", connID))

	events, err := h.service.Connect(r.Context(), roomID, connID)
	if err != nil {
		log.Error("connect failed", zap.Error(err))
		_ = conn.WriteJSON(errorMessage(domain.Code(err), err.Error()))
		return
	}
	defer h.service.Disconnect(context.Background(), roomID, connID)

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					// dropped by the session as a slow consumer
					_ = conn.Close()
					return
				}
				select {
				case send <- outboundMessage[any]{Type: string(ev.Type), Payload: ev.Payload}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	reply := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-closeSignals:
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		cmd, err := decodeCommand(connID, inbound)
		if err != nil {
			reply(errorMessage(codeBadPayload, err.Error()))
			continue
		}
		if err := h.service.Dispatch(r.Context(), roomID, cmd); errors.Is(err, domain.ErrSessionNotFound) {
			reply(errorMessage(domain.Code(err), err.Error()))
		}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

func decodeCommand(connID string, in inboundMessage) (domain.Command, error) {
	cmd := domain.Command{Type: domain.CommandType(in.Type), ParticipantID: connID}
	switch cmd.Type {
	case domain.CmdJoin:
		var p joinPayload
		if err := unmarshalPayload(in.Payload, &p); err != nil {
			return cmd, errors.New("invalid join payload")
		}
		cmd.IsHost = p.IsHost
		cmd.Name = p.Name
		cmd.CustomQuestions = p.CustomQuestions
	case domain.CmdSubmitAnswer:
		var p submitPayload
		if err := unmarshalPayload(in.Payload, &p); err != nil {
			return cmd, errors.New("invalid answer payload")
		}
		cmd.Answer = answerText(p.Answer)
	case domain.CmdStartGame, domain.CmdNextQuestion, domain.CmdEvaluateRound:
	default:
		// disconnect is implied by the socket closing and cannot be sent
		cmd.Type = domain.CommandType("unsupported:" + in.Type)
	}
	return cmd, nil
}

func unmarshalPayload(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// answerText accepts either a JSON string or a bare JSON number.
func answerText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

func errorMessage(code, message string) outboundMessage[any] {
	return outboundMessage[any]{Type: string(domain.EvtError), Payload: domain.ErrorPayload{Code: code, Message: message}}
}

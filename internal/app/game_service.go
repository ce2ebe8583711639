package app

import (
	"context"
	"errors"

	"estimation-quiz-service/internal/domain"
	"go.uber.org/zap"
)

// SessionRepository abstracts how room sessions are stored (in-memory, Redis, etc).
// Attach, AttachOrCreate and DeleteIfEmpty must be atomic with respect to each
// other so a connection never subscribes to a room that is being dropped.
type SessionRepository interface {
	// Attach subscribes connID to an existing room; false if there is none.
	Attach(roomID, connID string) (<-chan domain.Event, bool)
	// AttachOrCreate subscribes connID, creating the room with questions if needed.
	AttachOrCreate(roomID, connID string, questions []domain.Question) <-chan domain.Event
	Get(roomID string) (*Session, bool)
	DeleteIfEmpty(roomID string)
}

// QuestionRepository loads question sets (from cache/backing store).
type QuestionRepository interface {
	GetQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}

// GameService routes connections and commands to room sessions.
type GameService struct {
	sessions   SessionRepository
	questions  QuestionRepository
	defaultSet string
	log        *zap.Logger
}

func NewGameService(store SessionRepository, questions QuestionRepository, defaultSet string, log *zap.Logger) *GameService {
	if log == nil {
		log = zap.NewNop()
	}
	return &GameService{sessions: store, questions: questions, defaultSet: defaultSet, log: log}
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id string, questions []domain.Question) *Session {
	return newSession(id, questions)
}

// Connect attaches connID to a room, creating the room with the default
// question set when it does not exist yet.
func (g *GameService) Connect(ctx context.Context, roomID, connID string) (<-chan domain.Event, error) {
	events, ok := g.sessions.Attach(roomID, connID)
	if !ok {
		// loaded outside the store lock; another connection may create the room first
		set, err := g.questions.GetQuestionSet(ctx, g.defaultSet)
		if err != nil {
			return nil, err
		}
		events = g.sessions.AttachOrCreate(roomID, connID, set.Questions)
	}
	g.log.Debug("connection attached", zap.String("room", roomID), zap.String("participant", connID))
	return events, nil
}

// Dispatch runs one command against a room.
func (g *GameService) Dispatch(_ context.Context, roomID string, cmd domain.Command) error {
	session, ok := g.sessions.Get(roomID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	err := session.Handle(cmd)
	if err != nil {
		g.log.Info("command rejected",
			zap.String("room", roomID),
			zap.String("participant", cmd.ParticipantID),
			zap.String("command", string(cmd.Type)),
			zap.Error(err),
		)
	}
	return err
}

// Disconnect removes connID from the room and drops the room once it is empty.
func (g *GameService) Disconnect(ctx context.Context, roomID, connID string) {
	session, ok := g.sessions.Get(roomID)
	if !ok {
		return
	}
	session.Unsubscribe(connID)
	if err := g.Dispatch(ctx, roomID, domain.Command{Type: domain.CmdDisconnect, ParticipantID: connID}); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		g.log.Warn("disconnect failed", zap.String("room", roomID), zap.Error(err))
	}
	if session.IsEmpty() {
		g.sessions.DeleteIfEmpty(roomID)
		g.log.Debug("room closed", zap.String("room", roomID))
	}
}

// Snapshot returns the public state of a room.
func (g *GameService) Snapshot(_ context.Context, roomID string) (domain.RoomSnapshot, error) {
	session, ok := g.sessions.Get(roomID)
	if !ok {
		return domain.RoomSnapshot{}, domain.ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a room session has not been initialized.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrParticipantNotFound is returned when a connection acts before joining.
	ErrParticipantNotFound = errors.New("participant not found in session")
	// ErrQuestionSetNotFound indicates the question content could not be loaded.
	ErrQuestionSetNotFound = errors.New("question set not found")
	// ErrPermissionDenied is returned when a non-host issues a host-only command.
	ErrPermissionDenied = errors.New("only the host can do that")
	// ErrInvalidName is returned when a contestant joins with a blank name.
	ErrInvalidName = errors.New("name must not be empty")
	// ErrInvalidAnswer is returned when a submitted answer is not a finite number.
	ErrInvalidAnswer = errors.New("answer must be a number")
	// ErrInvalidQuestions indicates a custom question list could not be used.
	ErrInvalidQuestions = errors.New("custom questions must be a non-empty list of {question, answer}")
	// ErrNoActiveQuestion is returned when answering or evaluating with no question on screen.
	ErrNoActiveQuestion = errors.New("no active question")
	// ErrRoundAlreadyEvaluated guards against scoring the same question twice.
	ErrRoundAlreadyEvaluated = errors.New("round already evaluated")
	// ErrRoundClosed is returned for submissions after the round was evaluated.
	ErrRoundClosed = errors.New("round is closed")
	ErrGameNotInProgress = errors.New("game is not in progress")
	ErrGameInProgress    = errors.New("game already started")
	// ErrHostTaken is returned when a second connection tries to join as host.
	ErrHostTaken = errors.New("session already has a host")
	ErrUnsupportedCommand = errors.New("unsupported command")
)

var errorCodes = map[error]string{
	ErrSessionNotFound:       "session_not_found",
	ErrParticipantNotFound:   "participant_not_found",
	ErrQuestionSetNotFound:   "question_set_not_found",
	ErrPermissionDenied:      "permission_denied",
	ErrInvalidName:           "invalid_name",
	ErrInvalidAnswer:         "invalid_answer",
	ErrInvalidQuestions:      "invalid_questions",
	ErrNoActiveQuestion:      "no_active_question",
	ErrRoundAlreadyEvaluated: "round_already_evaluated",
	ErrRoundClosed:           "round_closed",
	ErrGameNotInProgress:     "game_not_in_progress",
	ErrGameInProgress:        "game_in_progress",
	ErrHostTaken:             "host_taken",
	ErrUnsupportedCommand:    "unsupported_command",
}

// Code maps an error to the stable code sent to clients.
func Code(err error) string {
	for target, code := range errorCodes {
		if errors.Is(err, target) {
			return code
		}
	}
	return "internal"
}

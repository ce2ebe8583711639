// Package sqlite keeps question sets in an embedded SQLite file for
// single-binary deployments without Postgres.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"estimation-quiz-service/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS question_sets (
	id         TEXT PRIMARY KEY,
	questions  TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// QuestionStore reads and writes question sets.
type QuestionStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(ctx context.Context, path string) (*QuestionStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &QuestionStore{db: db}, nil
}

func (s *QuestionStore) Close() error {
	return s.db.Close()
}

func (s *QuestionStore) LoadQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT questions FROM question_sets WHERE id = ?`, setID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
	}
	if err != nil {
		return domain.QuestionSet{}, fmt.Errorf("load question set: %w", err)
	}
	questions, err := domain.ParseQuestions([]byte(raw))
	if err != nil {
		return domain.QuestionSet{}, fmt.Errorf("decode question set %s: %w", setID, err)
	}
	return domain.QuestionSet{ID: setID, Questions: questions}, nil
}

func (s *QuestionStore) SaveQuestionSet(ctx context.Context, set domain.QuestionSet) error {
	if len(set.Questions) == 0 {
		return domain.ErrInvalidQuestions
	}
	data, err := json.Marshal(set.Questions)
	if err != nil {
		return fmt.Errorf("encode question set: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO question_sets (id, questions, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (id) DO UPDATE SET questions = excluded.questions, updated_at = CURRENT_TIMESTAMP`,
		set.ID, string(data))
	if err != nil {
		return fmt.Errorf("save question set %s: %w", set.ID, err)
	}
	return nil
}

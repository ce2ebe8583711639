package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"estimation-quiz-service/internal/domain"
	"estimation-quiz-service/internal/infra/postgres/migrations"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

// OpenDB opens a bun handle on dsn. The caller closes it.
func OpenDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return nil, fmt.Errorf("init migrations: %w", err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return group, nil
}

// QuestionStore writes question sets; reads go through QuestionLoader.
type QuestionStore struct {
	db *bun.DB
}

func NewQuestionStore(db *bun.DB) *QuestionStore {
	return &QuestionStore{db: db}
}

// SaveQuestionSet upserts set by id.
func (s *QuestionStore) SaveQuestionSet(ctx context.Context, set domain.QuestionSet) error {
	if len(set.Questions) == 0 {
		return domain.ErrInvalidQuestions
	}
	data, err := json.Marshal(set.Questions)
	if err != nil {
		return fmt.Errorf("encode question set: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO question_sets (id, questions, updated_at) VALUES (?, ?::jsonb, now())
		 ON CONFLICT (id) DO UPDATE SET questions = EXCLUDED.questions, updated_at = now()`,
		set.ID, string(data))
	if err != nil {
		return fmt.Errorf("save question set %s: %w", set.ID, err)
	}
	return nil
}

package cli

import (
	"context"
	"errors"
	"fmt"

	"estimation-quiz-service/internal/config"
	"estimation-quiz-service/internal/domain"
	"estimation-quiz-service/internal/infra/file"
	"estimation-quiz-service/internal/infra/postgres"
	redisinfra "estimation-quiz-service/internal/infra/redis"
	"estimation-quiz-service/internal/infra/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewQuestionsCmd groups question-set maintenance commands.
func NewQuestionsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "Manage stored question sets",
	}
	cmd.AddCommand(newQuestionsImportCmd(configPath))
	return cmd
}

func newQuestionsImportCmd(configPath *string) *cobra.Command {
	var setID, path string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a JSON question list into the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return importQuestions(cmd.Context(), cfg, logger, setID, path)
		},
	}
	cmd.Flags().StringVar(&setID, "set", "default", "question set id")
	cmd.Flags().StringVar(&path, "file", "", "path to a JSON question list")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

type questionSaver interface {
	SaveQuestionSet(ctx context.Context, set domain.QuestionSet) error
}

func importQuestions(ctx context.Context, cfg config.Config, logger *zap.Logger, setID, path string) error {
	questions, err := file.ReadQuestions(path)
	if err != nil {
		return err
	}
	set := domain.QuestionSet{ID: setID, Questions: questions}

	var saver questionSaver
	switch {
	case cfg.Postgres.URL != "":
		if err := runMigrations(ctx, cfg, logger); err != nil {
			return err
		}
		db := postgres.OpenDB(cfg.Postgres.URL)
		defer db.Close()
		saver = postgres.NewQuestionStore(db)
	case cfg.SQLite.Path != "":
		store, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		saver = store
	default:
		return errors.New("no question store configured: set postgres.url or sqlite.path")
	}

	if err := saver.SaveQuestionSet(ctx, set); err != nil {
		return err
	}
	logger.Info("question set imported", zap.String("set", setID), zap.Int("questions", len(questions)))

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		repo := redisinfra.NewQuestionRepository(client, nil, 0)
		if err := repo.Invalidate(ctx, setID); err != nil {
			return fmt.Errorf("invalidate cache: %w", err)
		}
	}
	return nil
}

package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"estimation-quiz-service/internal/app"
	"estimation-quiz-service/internal/config"
	"estimation-quiz-service/internal/domain"
	"estimation-quiz-service/internal/infra/file"
	"estimation-quiz-service/internal/infra/memory"
	"estimation-quiz-service/internal/infra/postgres"
	redisinfra "estimation-quiz-service/internal/infra/redis"
	"estimation-quiz-service/internal/infra/sqlite"
	transport "estimation-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)

	loader, closeLoader, err := openQuestionLoader(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLoader()

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	var questionRepo app.QuestionRepository
	if redisClient != nil {
		questionRepo = redisinfra.NewQuestionRepository(redisClient, loader, questionTTL)
	} else {
		questionRepo = memory.NewQuestionRepository(loader, questionTTL)
	}

	var store app.SessionRepository
	var roomMarkers *redisinfra.SessionStore
	if redisClient != nil {
		instance := cfg.Server.Instance
		if instance == "" {
			instance, _ = os.Hostname()
		}
		roomMarkers = redisinfra.NewSessionStore(redisClient, redisTTL, instance)
		store = roomMarkers
	} else {
		store = memory.NewSessionStore()
	}

	service := app.NewGameService(store, questionRepo, cfg.Questions.Set, logger)
	router := transport.NewRouter(service, transport.Options{
		DefaultRoom: cfg.Server.DefaultRoom,
		PublicURL:   cfg.Server.PublicURL,
		Logger:      logger,
	})

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting quiz service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if roomMarkers != nil {
		g.Go(func() error {
			return roomMarkers.Run(gctx, redisinfra.RefreshInterval(redisTTL))
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openQuestionLoader picks the first configured question source:
// Postgres, then SQLite, then a JSON directory, then the built-in set.
func openQuestionLoader(ctx context.Context, cfg config.Config, logger *zap.Logger) (memory.QuestionLoader, func(), error) {
	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("questions from postgres")
		return postgres.NewQuestionLoader(pool), pool.Close, nil
	case cfg.SQLite.Path != "":
		store, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("questions from sqlite", zap.String("path", cfg.SQLite.Path))
		return store, func() { _ = store.Close() }, nil
	case cfg.Questions.Dir != "":
		logger.Info("questions from directory", zap.String("dir", cfg.Questions.Dir))
		return withSampleFallback(file.NewQuestionLoader(cfg.Questions.Dir)), func() {}, nil
	default:
		logger.Info("questions from built-in sample")
		return withSampleFallback(nil), func() {}, nil
	}
}

// sampleFallback serves the built-in set when the primary loader has no
// "default" set.
type sampleFallback struct {
	primary memory.QuestionLoader
	sample  *memory.StaticQuestionLoader
}

func withSampleFallback(primary memory.QuestionLoader) memory.QuestionLoader {
	sample := memory.SampleQuestions()
	return &sampleFallback{
		primary: primary,
		sample:  memory.NewStaticQuestionLoader(map[string]domain.QuestionSet{sample.ID: sample}),
	}
}

func (l *sampleFallback) LoadQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	if l.primary != nil {
		set, err := l.primary.LoadQuestionSet(ctx, setID)
		if !errors.Is(err, domain.ErrQuestionSetNotFound) {
			return set, err
		}
	}
	return l.sample.LoadQuestionSet(ctx, setID)
}

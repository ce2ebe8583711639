package integration

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"estimation-quiz-service/internal/app"
	"estimation-quiz-service/internal/domain"
	"estimation-quiz-service/internal/infra/postgres"
	infraredis "estimation-quiz-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func TestRoundEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuestions(t, ctx, pgURL, sampleSet())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := postgres.NewQuestionLoader(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	questionRepo := infraredis.NewQuestionRepository(redisClient, loader, 5*time.Minute)
	sessionStore := infraredis.NewSessionStore(redisClient, 5*time.Minute, "it")
	service := app.NewGameService(sessionStore, questionRepo, "default", zap.NewNop())

	hostEvents, err := service.Connect(ctx, "room-1", "h")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := service.Connect(ctx, "room-1", "a"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := service.Connect(ctx, "room-1", "b"); err != nil {
		t.Fatalf("connect: %v", err)
	}

	commands := []domain.Command{
		{Type: domain.CmdJoin, ParticipantID: "h", IsHost: true},
		{Type: domain.CmdJoin, ParticipantID: "a", Name: "Alice"},
		{Type: domain.CmdJoin, ParticipantID: "b", Name: "Bob"},
		{Type: domain.CmdStartGame, ParticipantID: "h"},
		{Type: domain.CmdNextQuestion, ParticipantID: "h"},
		{Type: domain.CmdSubmitAnswer, ParticipantID: "a", Answer: "3"},
		{Type: domain.CmdSubmitAnswer, ParticipantID: "b", Answer: "6"},
		{Type: domain.CmdEvaluateRound, ParticipantID: "h"},
	}
	for _, cmd := range commands {
		if err := service.Dispatch(ctx, "room-1", cmd); err != nil {
			t.Fatalf("%s: %v", cmd.Type, err)
		}
	}

	var result domain.RoundResult
	timeout := time.After(5 * time.Second)
	for result.QuestionIndex == 0 {
		select {
		case ev := <-hostEvents:
			if ev.Type == domain.EvtRoundResult {
				result = ev.Payload.(domain.RoundResult)
			}
		case <-timeout:
			t.Fatalf("no round result")
		}
	}
	if len(result.Winners) != 1 || result.Winners[0] != "Alice" || result.AwardedPoints["b"] != 0 {
		t.Fatalf("unexpected result %+v", result)
	}

	cached, err := redisClient.Exists(ctx, "questions:default").Result()
	if err != nil || cached != 1 {
		t.Fatalf("expected question set cached in redis, got %d, %v", cached, err)
	}
	if err := sessionStore.Refresh(ctx); err != nil {
		t.Fatalf("refresh room markers: %v", err)
	}
	marker, err := redisClient.Get(ctx, "quiz:room:room-1").Result()
	if err != nil || marker != "it" {
		t.Fatalf("expected room marker, got %q, %v", marker, err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedQuestions(t *testing.T, ctx context.Context, dsn string, set domain.QuestionSet) {
	t.Helper()
	db := postgres.OpenDB(dsn)
	defer db.Close()

	if _, err := postgres.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := postgres.NewQuestionStore(db).SaveQuestionSet(ctx, set); err != nil {
		t.Fatalf("seed questions: %v", err)
	}
}

func sampleSet() domain.QuestionSet {
	return domain.QuestionSet{
		ID:        "default",
		Questions: []domain.Question{{Prompt: "2+2", Target: 4}},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}

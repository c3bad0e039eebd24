package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"math-quiz-service/internal/app"
	"math-quiz-service/internal/config"
	"math-quiz-service/internal/infra/memory"
	"math-quiz-service/internal/infra/postgres"
	infraredis "math-quiz-service/internal/infra/redis"
	"math-quiz-service/internal/problemgen"
	transport "math-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
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

// backends is what the config resolves to; nil fields fall back to memory.
type backends struct {
	redis *redis.Client
	pool  *pgxpool.Pool
}

func (b backends) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
	if b.redis != nil {
		_ = b.redis.Close()
	}
}

func connectBackends(ctx context.Context, cfg config.Config) (backends, error) {
	var b backends
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return backends{}, err
		}
		b.pool = pool
	}
	return b, nil
}

func engineOptions(cfg config.Config) []app.EngineOption {
	return []app.EngineOption{
		app.WithFeedbackWindow(config.TTLDuration(cfg.Game.FeedbackWindow, app.DefaultFeedbackWindow)),
		app.WithPersistTimeout(config.TTLDuration(cfg.Game.PersistTimeout, 5*time.Second)),
	}
}

func newScoreStore(b backends) app.ScoreStore {
	if b.pool != nil {
		return postgres.NewScoreStore(b.pool)
	}
	return memory.NewScoreStore()
}

func newGameService(cfg config.Config, b backends) *app.GameService {
	scores := newScoreStore(b)
	boardTTL := config.TTLDuration(cfg.Leaderboard.TTL, 30*time.Second)
	sessionTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var (
		sessions app.SessionRepository
		progress app.ProgressRepository
		boards   app.LeaderboardRepository
	)
	if b.redis != nil {
		sessions = infraredis.NewSessionStore(b.redis, sessionTTL)
		progress = infraredis.NewProgressStore(b.redis)
		boards = infraredis.NewLeaderboardRepository(b.redis, scores, cfg.Leaderboard.Limit, boardTTL)
	} else {
		sessions = memory.NewSessionStore()
		progress = memory.NewProgressStore()
		boards = memory.NewLeaderboardRepository(scores, cfg.Leaderboard.Limit, boardTTL)
	}
	return app.NewGameService(sessions, progress, scores, boards, problemgen.NewGenerator(), engineOptions(cfg)...)
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
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

	b, err := connectBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	service := newGameService(cfg, b)
	wsHandler := transport.NewWSHandler(service, config.TTLDuration(cfg.Game.TickInterval, time.Second))

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(service, wsHandler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting math quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

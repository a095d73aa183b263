package cli

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-bot-service/internal/app"
	"quiz-bot-service/internal/config"
	"quiz-bot-service/internal/infra/memory"
	pgstore "quiz-bot-service/internal/infra/postgres"
	redispoll "quiz-bot-service/internal/infra/redis"
	"quiz-bot-service/internal/schedule"
	"quiz-bot-service/internal/transport/loopback"
	"quiz-bot-service/internal/transport/ws"
)

// NewStartCmd builds the CLI subcommand to start the bot.
func NewStartCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context(), *configPath)
		},
	}
}

func runBot(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	var store app.Store
	if cfg.Database.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = pgstore.NewStore(pool)
	} else {
		log.Printf("no database configured, using in-memory store")
		store = memory.NewStore()
	}

	var cache app.PollCache
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cache = redispoll.NewPollCache(client, config.TTLDuration(cfg.Redis.TTL, 24*time.Hour))
	} else {
		log.Printf("no redis configured, using in-memory poll cache")
		cache = memory.NewPollCache()
	}

	recorder := app.NewRecorder(store, store, store, cache, loc)

	// The gateway read loop starts at Dial, before the services it feeds are
	// wired. Handlers block on ready until wiring below completes.
	ready := make(chan struct{})
	var commands *app.Commands
	var transport app.Transport
	handlers := ws.EventHandlers{
		Answer: func(ctx context.Context, ev ws.AnswerEvent) {
			<-ready
			// Retracted votes arrive with no options selected.
			if len(ev.OptionIDs) == 0 {
				return
			}
			outcome, err := recorder.RecordAnswer(ctx, ev.PollID, ev.UserID, ev.Username, ev.OptionIDs[0], time.Now().In(loc))
			if err != nil {
				log.Printf("record answer for poll %s: %v", ev.PollID, err)
				return
			}
			log.Printf("answer from user %d on poll %s: %s", ev.UserID, ev.PollID, outcome)
		},
		Command: func(ctx context.Context, ev ws.CommandEvent) {
			<-ready
			reply, err := commands.Handle(ctx, ev.UserID, ev.Command, ev.Args)
			if err != nil {
				log.Printf("command %q from user %d: %v", ev.Command, ev.UserID, err)
				reply = "Error: " + err.Error()
			}
			if err := transport.SendMessage(ctx, ev.ChatID, reply); err != nil {
				log.Printf("send command reply to chat %d: %v", ev.ChatID, err)
			}
		},
	}

	if cfg.Gateway.URL != "" {
		client, err := ws.Dial(ctx, cfg.Gateway.URL, cfg.Gateway.Token, handlers)
		if err != nil {
			return err
		}
		defer client.Close()
		transport = client
	} else {
		log.Printf("no gateway configured, using loopback transport")
		transport = loopback.New()
	}

	broadcaster := app.NewBroadcaster(store, store, cache, transport, cfg.Groups, loc)
	leaderboard := app.NewLeaderboard(store, cfg.Leaderboard.Size)
	reporter := app.NewNightlyReporter(leaderboard, transport, cfg.Groups, loc)

	scheduler := schedule.New(store, broadcaster, reporter, loc, cfg.Report.Hour, cfg.Report.Minute)
	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	defer scheduler.Stop()

	gate := app.NewAdminGate(cfg.Admins)
	slotService := app.NewSlotService(store, gate, scheduler)
	questionService := app.NewQuestionService(store, gate, loc)
	commands = app.NewCommands(questionService, slotService, broadcaster, leaderboard, loc)
	close(ready)

	log.Printf("quiz bot started (%d groups, %d admins)", len(cfg.Groups), len(cfg.Admins))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down...")
	}
	return nil
}

package main

import (
	"bbs-lab/auth"
	"bbs-lab/domain"
	"bbs-lab/internal"
	"bbs-lab/moderation"
	"bbs-lab/projection"
	"bbs-lab/repositories"
	"bbs-lab/runtime"
	"bbs-lab/runtime/workers"
	"bbs-lab/services"
	"bbs-lab/transport/rest"
	"bbs-lab/transport/ws"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so every defer (database cleanup included)
// executes before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	maskChar, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Moderation
	censored, err := runtime.LoadCensoredWords()
	if err != nil {
		return err
	}
	log.Info(fmt.Sprintf("%d censored words loaded [%s]",
		len(censored.Words), strings.Join(censored.Languages, ",")))
	moderator, err := moderation.NewModerator(censored.Words, maskChar)
	if err != nil {
		return err
	}

	// 4. Identity & boards
	issuer := auth.NewTokenIssuer(config.JWTSecret, config.AuthTokenDuration)
	authService := services.NewAuthService(repositories.NewUserRepository(db), issuer)

	// 5. Real-time core
	slots := runtime.NewSlotRegistry(config.AgentCapacity, config.ObserverCapacity)
	channels := runtime.NewChannelRegistry(config.HistoryLimit, config.SinkTimeout)
	timeline := projection.NewTimeline(config.ActivityLimit)
	channels.AddTap(timeline)

	relay := runtime.NewRelay(log, slots, channels, authService,
		moderator.Censor, config.SinkTimeout)

	boardService := services.NewBoardService(
		repositories.NewBoardRepository(db, log), relay)

	// 6. Supervised workers: reaper, persona, telemetry
	sysopLines, err := runtime.LoadPersona("sysop")
	if err != nil {
		return err
	}
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		workers.NewReaperWorker(relay, config.IdleTimeout, config.SweepInterval, log),
		workers.NewPersonaWorker(relay, "sysop", domain.ChannelGeneral, sysopLines,
			config.PersonaInterval, log),
		workers.NewTelemetryWorker(relay, config.MetricInterval, log),
	)

	// 7. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sup.Run(ctx)

	// 8. HTTP server: websocket endpoint + CRUD API
	mux := http.NewServeMux()
	mux.Handle("GET /ws", ws.NewHandler(relay, relay.ChannelNames(),
		config.ConnectionBufferSize, log))
	rest.NewHandler(authService, boardService, timeline, log).Register(mux)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: mux}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 9. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 10. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}

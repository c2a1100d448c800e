// Server runs the FocusFlow webhook server. With DATABASE_URL unset it runs
// entirely on in-memory stores and a logging chat client, which is enough for
// local development against curl.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"focusflow/backend/internal/assistant"
	"focusflow/backend/internal/assistant/executor"
	"focusflow/backend/internal/breakpolicy/engine"
	"focusflow/backend/internal/chat"
	"focusflow/backend/internal/clock"
	"focusflow/backend/internal/config"
	"focusflow/backend/internal/db"
	healthhandler "focusflow/backend/internal/health/handler"
	"focusflow/backend/internal/intent"
	meetingrepo "focusflow/backend/internal/meeting/repository"
	"focusflow/backend/internal/server"
	sessionrepo "focusflow/backend/internal/session/repository"
	sessionservice "focusflow/backend/internal/session/service"
	suggestionrepo "focusflow/backend/internal/suggestion/repository"
	"focusflow/backend/internal/telemetry"
	telemetryotel "focusflow/backend/internal/telemetry/otel"
	"focusflow/backend/internal/telemetry/producer"
	"focusflow/backend/internal/textgen"
	userrepo "focusflow/backend/internal/user/repository"
)

// sessionStore is everything the server needs from session storage: the state
// machine repo, the summary aggregates, and the notification mark.
type sessionStore interface {
	sessionservice.Repo
	assistant.SessionStats
	assistant.SessionMarker
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, "focusflow-server", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	providers.SetGlobal()

	// Storage: Postgres when configured, in-memory otherwise.
	var (
		users        assistant.UserRepo
		sessions     sessionStore
		suggestions  assistant.SuggestionRepo
		meetings     engine.MeetingRepo
		healthPinger healthhandler.Pinger
	)
	if cfg.DatabaseURL != "" {
		sqlDB, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer sqlDB.Close()
		healthPinger = sqlDB
		users = userrepo.NewPostgresRepository(sqlDB)
		sessions = sessionrepo.NewPostgresRepository(sqlDB)
		suggestions = suggestionrepo.NewPostgresRepository(sqlDB)
		meetings = meetingrepo.NewPostgresRepository(sqlDB)
	} else {
		log.Println("server: DATABASE_URL not set, using in-memory stores")
		users = userrepo.NewMemoryRepository()
		sessions = sessionrepo.NewMemoryRepository()
		suggestions = suggestionrepo.NewMemoryRepository()
		meetings = meetingrepo.NewMemoryRepository()
	}

	// Telemetry sinks: OTel Logs always (no-op without an endpoint), Kafka
	// when brokers are configured.
	emitters := []telemetry.EventEmitter{telemetryotel.NewEventEmitter(providers.LoggerProvider)}
	var kafkaProducer producer.Producer
	if brokers := cfg.TelemetryKafkaBrokersList(); len(brokers) > 0 {
		kp, err := producer.NewKafkaProducer(brokers, cfg.TelemetryKafkaTopic)
		if err != nil {
			log.Printf("server: kafka producer disabled: %v", err)
		} else {
			defer kp.Close()
			kafkaProducer = kp
			emitters = append(emitters, kp)
		}
	}
	emitter := telemetry.Multi(emitters...)

	var gateway assistant.ChatGateway = chat.NewDevClient()
	if cfg.ChatBotToken != "" {
		gateway = chat.NewClient(cfg.ChatBaseURL, cfg.ChatBotToken)
	}

	var generator textgen.Generator
	if cfg.TextgenBaseURL != "" {
		generator = textgen.NewClient(cfg.TextgenBaseURL, cfg.TextgenAPIKey, cfg.TextgenModel)
	} else {
		log.Println("server: TEXTGEN_BASE_URL not set, free text resolves to unsupported")
	}

	clk := clock.Real()
	exec := executor.New(cfg.ExecutorBudgetDuration())
	notifier := assistant.NewStatusNotifier(users, gateway, exec, sessions, clk)
	evaluator := engine.NewOPAEvaluator(meetings)

	dispatcher := assistant.New(assistant.Config{
		Users:               users,
		Sessions:            sessionservice.NewSessionService(sessions, notifier, clk),
		Stats:               sessions,
		Suggestions:         suggestions,
		Breaks:              evaluator,
		Classifier:          intent.NewClassifier(generator, cfg.IntentConfidenceFloor, cfg.DefaultFocusMinutes),
		Executor:            exec,
		Chat:                gateway,
		Emitter:             emitter,
		Clock:               clk,
		DefaultFocusMinutes: cfg.DefaultFocusMinutes,
	})

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: server.NewHandler(server.Deps{
			Dispatcher:          dispatcher,
			HealthPinger:        healthPinger,
			HealthPolicyChecker: evaluator,
			TelemetryProducer:   kafkaProducer,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("webhook server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down webhook server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}

	// Let in-flight async telemetry emits finish before tearing down exporters.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("otel shutdown: %v", err)
	}
	log.Println("webhook server stopped")
}

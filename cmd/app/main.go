// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"ai-interview-engine/internal/application"
	"ai-interview-engine/internal/config"
	"ai-interview-engine/internal/domain/ports/adapter"
	"ai-interview-engine/internal/domain/ports/repository"
	aiAdapters "ai-interview-engine/internal/infra/adapters/ai"
	"ai-interview-engine/internal/infra/adapters/notify"
	"ai-interview-engine/internal/infra/adapters/speech"
	tele "ai-interview-engine/internal/infra/adapters/telegram"
	pg "ai-interview-engine/internal/infra/db/postgres"
	adminhttp "ai-interview-engine/internal/infra/http"
	"ai-interview-engine/internal/infra/i18n"
	"ai-interview-engine/internal/infra/lock"
	"ai-interview-engine/internal/infra/logging"
	"ai-interview-engine/internal/infra/metrics"
	red "ai-interview-engine/internal/infra/redis"
	"ai-interview-engine/internal/infra/security"
	"ai-interview-engine/internal/infra/storage"
	"ai-interview-engine/internal/infra/worker"
	"ai-interview-engine/internal/usecase"
)

// Set via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop AI/speech fallbacks, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 15*time.Second, logger)

	// ---- Redis (optional) ----
	var redisClient *red.Client
	if cfg.Redis.URL != "" {
		redisClient, err = red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
	}

	// ---- Security ----
	tokenSecret := cfg.Security.TokenSecret
	if tokenSecret == "" && cfg.Runtime.Dev {
		logger.Warn().Msg("security.token_secret not set; using an INSECURE dev secret")
		tokenSecret = "dev-only-token-secret-0123456789ab"
	}
	signer, err := security.NewTokenSigner(tokenSecret)
	if err != nil {
		logger.Fatal().Err(err).Msg("token signer")
	}
	var encSvc *security.EncryptionService
	if cfg.Security.EncryptionKey != "" {
		if encSvc, err = security.NewEncryptionService(cfg.Security.EncryptionKey); err != nil {
			logger.Fatal().Err(err).Msg("encryption")
		}
	} else {
		logger.Warn().Msg("security.encryption_key not set; interview resources are stored in plain text")
	}

	// ---- Repositories ----
	txManager := pg.NewTxManager(pool)
	sessionRepo := pg.NewInterviewSessionRepo(pool)
	credRepo := pg.NewCredentialRepo(pool)
	invitationRepo := pg.NewInvitationRepo(pool)
	inboxRepo := pg.NewInboxRepo(pool)
	var resourcesRepo repository.InterviewResourcesRepository = pg.NewInterviewResourcesRepo(pool, encSvc)
	if redisClient != nil {
		resourcesRepo = pg.NewResourcesRepoCacheDecorator(resourcesRepo, redisClient, cfg.Redis.TTL, logger)
	}

	// ---- Audio storage and locking ----
	var chunkStore repository.AudioChunkStore
	switch cfg.Storage.Backend {
	case "redis":
		chunkStore = red.NewChunkStore(redisClient, cfg.Storage.TTL)
	default:
		fsStore, err := storage.NewFSChunkStore(cfg.Storage.Root, cfg.Storage.Extension)
		if err != nil {
			logger.Fatal().Err(err).Msg("chunk store")
		}
		chunkStore = fsStore
	}
	var locker adapter.Locker = lock.NewLocal()
	if redisClient != nil {
		locker = red.NewLocker(redisClient)
	}

	// ---- AI and speech ----
	ai := buildAI(ctx, cfg, logger)
	speechSvc := buildSpeech(cfg, logger)

	// ---- Notifications ----
	workers := worker.NewPool(cfg.Interview.NotificationWorkers, cfg.Interview.NotificationQueue, logger)
	workers.Start(ctx)
	defer workers.Stop()

	inbox := []adapter.InboxNotifier{notify.NewInboxNotifier(inboxRepo, logger)}
	if cfg.Telegram.Token != "" {
		alerts, err := tele.NewAlertNotifier(cfg.Telegram.Token, cfg.Telegram.AlertChatID, logger)
		if err != nil {
			logger.Error().Err(err).Msg("telegram alerts disabled")
		} else {
			inbox = append(inbox, alerts)
		}
	}
	var mailer adapter.Mailer = notify.NewLogMailer(logger)
	if cfg.Mail.Host != "" {
		smtpMailer, err := notify.NewSMTPMailer(cfg.Mail)
		if err != nil {
			logger.Fatal().Err(err).Msg("smtp")
		}
		mailer = smtpMailer
	}

	bundle, err := i18n.NewBundle(i18n.LocalesFS, "en", "ar")
	if err != nil {
		logger.Fatal().Err(err).Msg("i18n")
	}
	dispatch := usecase.NewDispatcher(workers, notify.NewMultiNotifier(inbox...), mailer, bundle, logger)

	// ---- Use cases ----
	iv := cfg.Interview
	gen := usecase.NewQuestionGenerator(ai, bundle, usecase.QuestionGenConfig{
		Model:           cfg.AI.DefaultModel,
		NextTimeout:     iv.GenerationTimeout,
		PreparedTimeout: iv.PreparedTimeout,
		MaxPromptTokens: cfg.AI.MaxPromptTokens,
		PreparedCount:   cfg.AI.PreparedQuestions,
	}, logger)
	resourceUC := usecase.NewResourceUseCase(resourcesRepo, gen, logger)
	audioUC := usecase.NewAudioBufferUseCase(chunkStore, sessionRepo, logger)
	sessionUC := usecase.NewSessionUseCase(signer, credRepo, invitationRepo, sessionRepo, resourceUC, audioUC,
		txManager, dispatch, bundle, logger)
	turnUC := usecase.NewTurnUseCase(sessionRepo, credRepo, resourceUC, audioUC, speechSvc, gen, locker,
		txManager, dispatch, bundle, usecase.TurnConfig{
			TranscriptionTimeout: iv.TranscriptionTimeout,
			LockTTL:              iv.TurnLockTTL,
			AudioExtension:       cfg.Storage.Extension,
			SynthesizeReplies:    cfg.Speech.SynthesizeReplies,
			Voice:                cfg.Speech.Voice,
			Format:               cfg.Speech.Format,
		}, logger)
	postponeUC := usecase.NewPostponeUseCase(sessionRepo, credRepo, invitationRepo, signer, txManager,
		dispatch, bundle, usecase.PostponeConfig{
			LockWindow:        iv.PostponeLockWindow,
			MaxPerJob:         iv.MaxPostponementsPerJob,
			CredentialTTL:     iv.CredentialTTL,
			AccessLinkBaseURL: iv.AccessLinkBaseURL,
		}, logger)

	// ---- Facade ----
	var limiter application.AttemptLimiter
	if redisClient != nil {
		limiter = red.NewRateLimiter(redisClient)
	}
	facade := application.NewInterviewFacade(sessionUC, audioUC, turnUC, postponeUC, limiter,
		application.StartLimit{Attempts: iv.StartAttempts, Window: iv.StartAttemptWindow}, logger)
	_ = facade // mounted by the transport layer

	// ---- Admin HTTP ----
	checks := map[string]adminhttp.Pinger{"postgres": pool}
	if redisClient != nil {
		checks["redis"] = redisClient
	}
	admin := adminhttp.NewAdminServer(cfg.Admin.Port, checks, logger)
	go func() {
		if err := admin.Start(); err != nil {
			logger.Error().Err(err).Msg("admin server stopped")
		}
	}()

	logger.Info().Str("version", version).Str("ai_provider", cfg.AI.Provider).
		Str("storage", cfg.Storage.Backend).Bool("redis", redisClient != nil).Msg("interview engine ready")

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := admin.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("admin shutdown")
	}
	cancel()
}

// buildAI wires provider adapters into Multi -> Limited -> Instrumented.
// Dev mode without any key falls back to the noop adapter.
func buildAI(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) adapter.AIServiceAdapter {
	byProvider := map[string]adapter.AIServiceAdapter{}
	if len(cfg.AI.OpenAIKeys) > 0 {
		oa, err := aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKeys, cfg.AI.OpenAIBaseURL, cfg.AI.DefaultModel, cfg.AI.MaxOutputTokens)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
		byProvider["openai"] = oa
	}
	if cfg.AI.GeminiKey != "" {
		gm, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel, cfg.AI.MaxOutputTokens)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter")
		}
		byProvider["gemini"] = gm
	}

	var inner adapter.AIServiceAdapter
	switch {
	case len(byProvider) > 0:
		inner = aiAdapters.NewMultiAIAdapter(cfg.AI.Provider, byProvider)
	case cfg.Runtime.Dev:
		logger.Warn().Msg("no AI provider configured; using the noop adapter")
		inner = aiAdapters.NewNoopAIAdapter(logger)
	default:
		logger.Fatal().Msg("no AI provider configured: set ai.openai_keys or ai.gemini_key")
	}
	limited := aiAdapters.NewLimitedAI(inner, cfg.AI.ConcurrentLimit)
	return aiAdapters.NewInstrumentedAI(limited, cfg.AI.Provider, cfg.AI.DefaultModel)
}

func buildSpeech(cfg *config.Config, logger *zerolog.Logger) adapter.SpeechService {
	key := cfg.Speech.APIKey
	if key == "" && len(cfg.AI.OpenAIKeys) > 0 {
		key = cfg.AI.OpenAIKeys[0]
	}
	if key == "" {
		if !cfg.Runtime.Dev {
			logger.Fatal().Msg("no speech api key configured: set speech.api_key or ai.openai_keys")
		}
		logger.Warn().Msg("no speech api key; using the noop speech service")
		return speech.NewNoopSpeech(logger)
	}
	svc, err := speech.NewOpenAISpeech(key, cfg.Speech.BaseURL, cfg.Speech.TranscriptionModel, cfg.Speech.TTSModel)
	if err != nil {
		logger.Fatal().Err(err).Msg("speech")
	}
	return svc
}

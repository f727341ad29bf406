package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/ai-interviewer/internal/ai"
	"github.com/spigell/ai-interviewer/internal/ai/gemini"
	"github.com/spigell/ai-interviewer/internal/interview"
	"github.com/spigell/ai-interviewer/internal/logger"
	"github.com/spigell/ai-interviewer/internal/secrets"
	"github.com/spigell/ai-interviewer/internal/session"
)

const geminiAPIKeyEnv = "GEMINI_API_KEY"

// setup builds the logger and reads the config. Errors here are fatal for every command.
func setup() (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		logger.Fatal("config is required")
	}

	return logger, config
}

// newStore returns the configured session store and a function releasing its resources.
func newStore(ctx context.Context, cfg StoreConfig, logger *zap.Logger) (session.Store, func(), error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "memory":
		logger.Info("using in-memory session store")
		return session.NewMemoryStore(), func() {}, nil
	case "redis":
		client, err := session.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		logger.Info("using redis session store",
			zap.String("address", cfg.Redis.Address),
			zap.Int("db", cfg.Redis.DB),
			zap.Duration("ttl", cfg.Redis.TTL),
		)
		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Warn("closing redis client", zap.Error(err))
			}
		}
		return session.NewRedisStore(client, cfg.Redis.KeyPrefix, cfg.Redis.TTL), closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store backend: %s", cfg.Backend)
	}
}

func newInterviewer(ctx context.Context, cfg AIConfig, baseLogger *zap.Logger) (ai.Interviewer, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	opts := gemini.Options{
		Backend:    cfg.Gemini.Backend,
		Project:    cfg.Gemini.Project,
		Location:   cfg.Gemini.Location,
		Model:      cfg.Gemini.Model,
		MaxRetries: cfg.Gemini.MaxRetries,
	}

	if !strings.EqualFold(strings.TrimSpace(cfg.Gemini.Backend), gemini.BackendVertexAI) {
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			File:  cfg.Gemini.APIKeyFile,
			Value: cfg.Gemini.APIKey,
			Env:   geminiAPIKeyEnv,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or %s)", err, geminiAPIKeyEnv)
		}
		opts.APIKey = apiKey
	}

	aiLogger := logger.WithCommonFields(baseLogger, "gemini", cfg.Gemini.Model)

	generator, err := gemini.NewGenerator(ctx, opts, aiLogger.With(zap.Int("ai_max_retries", cfg.Gemini.MaxRetries)))
	if err != nil {
		return nil, err
	}

	return gemini.NewInterviewer(generator, cfg.Gemini.MaxLogLength, aiLogger), nil
}

// newService wires the store and the model into the interview service.
func newService(ctx context.Context, config *Config, logger *zap.Logger) (*interview.Service, session.Store, func(), error) {
	store, closeStore, err := newStore(ctx, config.Store, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	interviewer, err := newInterviewer(ctx, config.AI, logger)
	if err != nil {
		closeStore()
		return nil, nil, nil, fmt.Errorf("building ai interviewer: %w", err)
	}

	svc, err := interview.NewService(store, interviewer, config.Interview, logger)
	if err != nil {
		closeStore()
		return nil, nil, nil, fmt.Errorf("building interview service: %w", err)
	}

	return svc, store, closeStore, nil
}

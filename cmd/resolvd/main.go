package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	apiPkg "github.com/resolvd-io/resolvd/internal/api"
	"github.com/resolvd-io/resolvd/internal/config"
	"github.com/resolvd-io/resolvd/internal/escalation"
	"github.com/resolvd-io/resolvd/internal/knowledge"
	"github.com/resolvd-io/resolvd/internal/llm"
	"github.com/resolvd-io/resolvd/internal/logbuf"
	"github.com/resolvd-io/resolvd/internal/notify"
	"github.com/resolvd-io/resolvd/internal/provider"
	"github.com/resolvd-io/resolvd/internal/scheduler"
	"github.com/resolvd-io/resolvd/internal/workflow"
)

func main() {
	configPath := flag.String("config", "", "Path to config JSON file")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	// Set up logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	ring := logbuf.NewRing(2000)
	jsonHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(logbuf.NewHandler(jsonHandler, ring))

	// Load config (file or env)
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger.Info("resolvd starting", "data_dir", cfg.DataDir)

	// 1. Initialize provider
	pcfg, ok := cfg.Providers["default"]
	if !ok {
		logger.Error("no 'default' provider configured")
		os.Exit(1)
	}
	prov := buildProvider(pcfg)
	var retryOpts []provider.RetryOption
	if cfg.Engine.MaxRetries > 0 {
		retryOpts = append(retryOpts, provider.WithMaxRetries(uint64(cfg.Engine.MaxRetries)))
	}
	retryOpts = append(retryOpts, provider.WithRetryLogger(logger.With("component", "provider")))
	retrying := provider.NewRetrying(prov, retryOpts...)
	logger.Info("provider initialized", "name", prov.Name(), "model", pcfg.Model)

	// 2. Knowledge base: built-in catalogue plus any configured files
	kb := knowledge.NewBase()
	for _, path := range cfg.Knowledge.Files {
		if err := kb.LoadFile(path); err != nil {
			logger.Error("failed to load knowledge file", "path", path, "error", err)
			os.Exit(1)
		}
		logger.Info("knowledge file loaded", "path", path)
	}

	// 3. Escalation store + notification sinks
	os.MkdirAll(cfg.DataDir, 0o755)
	dbPath := cfg.DataDir + "/escalations.db"
	store, err := escalation.NewStore(dbPath)
	if err != nil {
		logger.Error("failed to open escalation store", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	sinks := []workflow.EscalationSink{store}
	var slackNotifier *notify.SlackNotifier
	if cfg.Notify.Slack != nil {
		slackNotifier = notify.NewSlack(cfg.Notify.Slack.Token, cfg.Notify.Slack.Channel, logger.With("component", "slack"))
		sinks = append(sinks, slackNotifier)
		logger.Info("slack notifier enabled", "channel", cfg.Notify.Slack.Channel)
	}
	sink := escalation.NewFanout(sinks...)

	// 4. Workflow engine
	var engineOpts []workflow.Option
	if cfg.Engine.MaxAttempts > 0 {
		engineOpts = append(engineOpts, workflow.WithMaxAttempts(cfg.Engine.MaxAttempts))
	}
	if cfg.Engine.MaxSnippets > 0 {
		engineOpts = append(engineOpts, workflow.WithMaxSnippets(cfg.Engine.MaxSnippets))
	}
	engine := workflow.New(workflow.Deps{
		Classifier: llm.NewClassifier(retrying, pcfg.Model),
		Generator:  llm.NewGenerator(retrying, pcfg.Model),
		Evaluator:  llm.NewEvaluator(retrying, pcfg.Model),
		Sink:       sink,
		Knowledge:  kb,
		Logger:     logger.With("component", "workflow"),
	}, engineOpts...)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 5. Escalation digest scheduler
	if cfg.Digest.Schedule != "" {
		var poster scheduler.Poster
		if slackNotifier != nil {
			poster = slackNotifier
		}
		digest := scheduler.NewDigest(store, poster, logger.With("component", "digest"))
		if err := digest.Register(cfg.Digest.Schedule); err != nil {
			logger.Error("failed to register digest", "error", err)
			os.Exit(1)
		}
		go safeGo(logger, "digest", func() { digest.Start(ctx) })
	}

	// 6. API server
	apiSrv := apiPkg.NewServer(engine, store, apiPkg.Config{
		Host: cfg.API.Host,
		Port: cfg.API.Port,
		Key:  cfg.API.Key,
	}, logger.With("component", "api"), ring)

	go safeGo(logger, "api-server", func() { apiSrv.Start(ctx) })
	logger.Info("api server started", "port", cfg.API.Port)

	// 7. Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)
	cancel()
	logger.Info("resolvd stopped")
}

// buildProvider constructs the configured LLM provider.
func buildProvider(pcfg config.ProviderConfig) provider.Provider {
	switch pcfg.Type {
	case "anthropic":
		var opts []provider.AnthropicOption
		if pcfg.BaseURL != "" {
			opts = append(opts, provider.WithAnthropicBaseURL(pcfg.BaseURL))
		}
		if pcfg.Model != "" {
			opts = append(opts, provider.WithAnthropicModel(pcfg.Model))
		}
		return provider.NewAnthropic(pcfg.APIKey, opts...)
	default: // "openai" or empty
		var opts []provider.OpenAIOption
		if pcfg.BaseURL != "" {
			opts = append(opts, provider.WithBaseURL(pcfg.BaseURL))
		}
		if pcfg.Model != "" {
			opts = append(opts, provider.WithModel(pcfg.Model))
		}
		return provider.NewOpenAI(pcfg.APIKey, opts...)
	}
}

// safeGo runs fn with panic recovery.
func safeGo(logger *slog.Logger, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("goroutine panicked", "name", name, "panic", fmt.Sprintf("%v", r))
		}
	}()
	fn()
}

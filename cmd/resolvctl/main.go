package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/resolvd-io/resolvd/internal/config"
	"github.com/resolvd-io/resolvd/internal/knowledge"
	"github.com/resolvd-io/resolvd/internal/llm"
	"github.com/resolvd-io/resolvd/internal/provider"
	"github.com/resolvd-io/resolvd/internal/workflow"
	"github.com/resolvd-io/resolvd/pkg/protocol"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "run":
		cmdRun(os.Args[2:])
	case "health":
		cmdHealth()
	case "escalations":
		if len(os.Args) < 3 || os.Args[2] != "list" {
			fmt.Fprintln(os.Stderr, "usage: resolvctl escalations list")
			os.Exit(1)
		}
		cmdEscalationsList(os.Args[3:])
	case "config":
		if len(os.Args) < 4 || os.Args[2] != "validate" {
			fmt.Fprintln(os.Stderr, "usage: resolvctl config validate <path>")
			os.Exit(1)
		}
		cmdConfigValidate(os.Args[3])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// --- run command ---

func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	provType := fs.String("provider", envOr("RESOLVD_PROVIDER", "openai"), "Provider type: openai or anthropic")
	model := fs.String("model", envOr("RESOLVD_MODEL", ""), "LLM model name")
	apiKey := fs.String("api-key", "", "API key (or set OPENAI_API_KEY / ANTHROPIC_API_KEY)")
	baseURL := fs.String("base-url", envOr("RESOLVD_BASE_URL", ""), "Override API base URL")
	subject := fs.String("subject", "", "Ticket subject")
	description := fs.String("description", "", "Ticket description")
	attempts := fs.Int("max-attempts", 0, "Override draft attempt bound")
	verbose := fs.Bool("v", false, "Verbose logging")
	fs.Parse(args)

	// A bare JSON argument is also accepted: resolvctl run '{"subject":...}'
	if *subject == "" && *description == "" && fs.NArg() > 0 {
		var t protocol.Ticket
		if err := json.Unmarshal([]byte(fs.Arg(0)), &t); err != nil {
			fmt.Fprintf(os.Stderr, "error: ticket argument must be JSON: %v\n", err)
			os.Exit(1)
		}
		*subject, *description = t.Subject, t.Description
	}
	if *subject == "" && *description == "" {
		fmt.Fprintln(os.Stderr, "error: ticket required (--subject/--description or a JSON argument)")
		os.Exit(1)
	}

	// Resolve API key from env if not passed as flag
	if *apiKey == "" {
		switch *provType {
		case "anthropic":
			*apiKey = os.Getenv("ANTHROPIC_API_KEY")
		default:
			*apiKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if *apiKey == "" {
		fmt.Fprintln(os.Stderr, "error: API key required (--api-key, OPENAI_API_KEY, or ANTHROPIC_API_KEY)")
		os.Exit(1)
	}

	logLevel := slog.LevelWarn
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	var prov provider.Provider
	switch *provType {
	case "anthropic":
		if *model == "" {
			*model = "claude-sonnet-4-20250514"
		}
		opts := []provider.AnthropicOption{provider.WithAnthropicModel(*model)}
		if *baseURL != "" {
			opts = append(opts, provider.WithAnthropicBaseURL(*baseURL))
		}
		prov = provider.NewAnthropic(*apiKey, opts...)
	default:
		if *model == "" {
			*model = "gpt-4o"
		}
		opts := []provider.OpenAIOption{provider.WithModel(*model)}
		if *baseURL != "" {
			opts = append(opts, provider.WithBaseURL(*baseURL))
		}
		prov = provider.NewOpenAI(*apiKey, opts...)
	}
	retrying := provider.NewRetrying(prov, provider.WithRetryLogger(logger))

	var engineOpts []workflow.Option
	if *attempts > 0 {
		engineOpts = append(engineOpts, workflow.WithMaxAttempts(*attempts))
	}
	engine := workflow.New(workflow.Deps{
		Classifier: llm.NewClassifier(retrying, *model),
		Generator:  llm.NewGenerator(retrying, *model),
		Evaluator:  llm.NewEvaluator(retrying, *model),
		Knowledge:  knowledge.NewBase(),
		Logger:     logger,
	}, engineOpts...)

	out := engine.Run(context.Background(), protocol.Ticket{
		Subject:     *subject,
		Description: *description,
	})
	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(data))
}

// --- API client commands ---

func cmdHealth() {
	body, err := apiGet("/api/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(body))
}

func cmdEscalationsList(args []string) {
	fs := flag.NewFlagSet("escalations list", flag.ExitOnError)
	category := fs.String("category", "", "Filter by category (billing|technical|security|general)")
	since := fs.String("since", "", "Only escalations after this RFC3339 time")
	limit := fs.Int("limit", 50, "Max results")
	fs.Parse(args)

	query := fmt.Sprintf("?limit=%d", *limit)
	if *category != "" {
		query += "&category=" + *category
	}
	if *since != "" {
		query += "&since=" + *since
	}

	body, err := apiGet("/api/escalations" + query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	var rows []map[string]any
	json.Unmarshal(body, &rows)
	for _, r := range rows {
		fmt.Printf("%-36s %-10s %v  %s\n", r["run_id"], r["category"], r["attempts"], r["subject"])
	}
}

func cmdConfigValidate(path string) {
	_, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("config is valid")
}

// --- Helpers ---

func apiGet(path string) ([]byte, error) {
	base := envOr("RESOLVD_API_URL", "http://localhost:8080")
	url := base + path

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	if key := os.Getenv("RESOLVD_API_KEY"); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printUsage() {
	fmt.Println("resolvctl - ticket resolution CLI")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run                  Resolve a ticket locally (--subject, --description, or JSON arg)")
	fmt.Println("  health               Check daemon health")
	fmt.Println("  escalations list     List escalations (--category, --since, --limit)")
	fmt.Println("  config validate <p>  Validate config file")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  RESOLVD_API_URL    Daemon URL (default: http://localhost:8080)")
	fmt.Println("  RESOLVD_API_KEY    API key for authentication")
	fmt.Println("  RESOLVD_PROVIDER   Provider type: openai (default) or anthropic")
	fmt.Println("  OPENAI_API_KEY     API key for OpenAI provider")
	fmt.Println("  ANTHROPIC_API_KEY  API key for Anthropic provider")
}

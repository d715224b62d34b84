package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"villagework/internal/client"
	"villagework/internal/config"
	"villagework/internal/logging"
	"villagework/internal/logging/adapters"
	"villagework/internal/settings"
)

func main() {
	var (
		configFile = flag.String("config", "", "Configuration file path")
		command    = flag.String("cmd", "jobs", "Command to run (see -help)")
		output     = flag.String("output", "console", "Output format: console, json")
		verbose    = flag.Bool("verbose", false, "Log every API request")
		help       = flag.Bool("help", false, "Show help message")
		opts       options
	)
	flag.StringVar(&opts.filter, "filter", "all", "Filter key for jobs or applications")
	flag.StringVar(&opts.query, "q", "", "Search text")
	flag.StringVar(&opts.id, "id", "", "Job, application, notification or payment id")
	flag.StringVar(&opts.message, "message", "", "Application message")
	flag.StringVar(&opts.status, "status", "", "Status to set or filter by")
	flag.StringVar(&opts.name, "name", "", "Display name (register)")
	flag.StringVar(&opts.phone, "phone", "", "Phone number (register, login)")
	flag.StringVar(&opts.password, "password", "", "Password (register, login)")
	flag.StringVar(&opts.role, "role", "worker", "Account role: worker or owner (register)")
	flag.StringVar(&opts.skill, "skill", "", "Skill level: helper, worker or expert")
	flag.StringVar(&opts.language, "lang", "", "Preferred language code")
	flag.StringVar(&opts.title, "title", "", "Job title (post-job)")
	flag.StringVar(&opts.description, "desc", "", "Job description (post-job)")
	flag.StringVar(&opts.location, "location", "", "Job location (post-job)")
	flag.StringVar(&opts.salary, "salary", "", "Salary text, e.g. ₹500/day (post-job)")
	flag.StringVar(&opts.category, "category", "daily", "Job category (post-job)")
	flag.StringVar(&opts.experience, "experience", "any", "Experience level (post-job)")
	flag.BoolVar(&opts.training, "training", false, "Training provided (post-job)")
	flag.StringVar(&opts.jobID, "job", "", "Job id (pay)")
	flag.StringVar(&opts.workerID, "worker", "", "Worker id (pay)")
	flag.Int64Var(&opts.amount, "amount", 0, "Amount in rupees (pay)")
	flag.StringVar(&opts.method, "method", "cash", "Payment method: cash, upi, bank (pay)")
	flag.StringVar(&opts.key, "key", "", "Settings key (set)")
	flag.StringVar(&opts.value, "value", "", "Settings value (set)")
	flag.Parse()

	if *help {
		printUsage(os.Stdout)
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	repo, err := settings.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open settings: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := repo.Load(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load settings: %v\n", err)
		os.Exit(1)
	}

	level := logging.WarnLevel
	if *verbose {
		level = logging.DebugLevel
	}
	app := newCLI(os.Stdout, *output, repo, cfg.Client.BaseURL, cfg.Client.Timeout, newLogger(level))

	if err := app.run(ctx, *command, &opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", describe(err))
		repo.Close()
		os.Exit(1)
	}
}

// newLogger writes warnings (degraded loads) and, with -verbose, request traces to stderr
func newLogger(level logging.Level) logging.Logger {
	logger := logging.NewMultiLogger()
	logger.SetLevel(level)
	logger.AddAdapter(adapters.NewStdoutAdapter("cli", adapters.StdoutConfig{Format: "text", Writer: os.Stderr}))
	return logger
}

func newClient(repo settings.Repository, baseURL string, timeout time.Duration, logger logging.Logger) *client.Client {
	return client.New(baseURL, timeout,
		client.WithTokenSource(settings.TokenSource{Repo: repo}),
		client.WithLogger(logger),
	)
}

// Package main provides the pilot command line interface: a browser
// automation agent that plans actions from a natural language request
// and executes them against a locally launched browser through its
// remote debugging endpoint.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/entrhq/pilot/pkg/agent"
	"github.com/entrhq/pilot/pkg/bridge"
	appconfig "github.com/entrhq/pilot/pkg/config"
	"github.com/entrhq/pilot/pkg/devtools"
)

const version = "0.1.0" // Version of the pilot automation agent

// options holds the parsed command line options.
type options struct {
	ConfigPath  string
	ChromePath  string
	Port        int
	Headless    bool
	NoLaunch    bool
	PlanOnly    bool
	ExecCommand string
	ShowVersion bool
}

func main() {
	opts, args := parseFlags()

	if opts.ShowVersion {
		fmt.Printf("pilot v%s\n", version)
		return
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Create context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nShutting down gracefully...")
		cancel()
	}()

	if opts.ExecCommand != "" {
		if err := runBridgeCommand(ctx, cfg, opts.ExecCommand, args); err != nil {
			log.Fatalf("Command error: %v", err)
		}
		return
	}

	request := strings.TrimSpace(strings.Join(args, " "))
	if request == "" {
		log.Fatal("A request is required: pilot [options] <request>")
	}

	if err := run(ctx, cfg, opts, request); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

// parseFlags parses command line flags and returns them along with the
// remaining positional arguments.
func parseFlags() (*options, []string) {
	opts := &options{}

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to a YAML configuration file (optional)")
	flag.StringVar(&opts.ChromePath, "chrome-path", "", "Path to the Chrome/Chromium executable (overrides config)")
	flag.IntVar(&opts.Port, "port", 0, "Remote debugging port (overrides config)")
	flag.BoolVar(&opts.Headless, "headless", false, "Launch the browser in headless mode")
	flag.BoolVar(&opts.NoLaunch, "no-launch", false, "Assume the browser is already running")
	flag.BoolVar(&opts.PlanOnly, "plan", false, "Only output the action plan without executing it")
	flag.StringVar(&opts.ExecCommand, "exec", "", "Run an allowlisted local command instead of a browser request")
	flag.BoolVar(&opts.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "pilot - browser automation agent\n\n")
		fmt.Fprintf(os.Stderr, "Usage: pilot [options] <request>\n")
		fmt.Fprintf(os.Stderr, "       pilot -exec <name> [extra args...]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  pilot \"open https://example.com\"\n")
		fmt.Fprintf(os.Stderr, "  pilot -plan \"search for golang testing\"\n")
		fmt.Fprintf(os.Stderr, "  pilot -headless -port 9223 \"open release notes\"\n")
		fmt.Fprintf(os.Stderr, "  pilot -exec editor notes.txt\n")
	}

	flag.Parse()
	return opts, flag.Args()
}

// loadConfig builds the effective configuration from the optional file
// plus flag overrides.
func loadConfig(opts *options) (*appconfig.Config, error) {
	cfg := appconfig.Default()
	if opts.ConfigPath != "" {
		loaded, err := appconfig.Load(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if opts.ChromePath != "" {
		cfg.Browser.ExecutablePath = opts.ChromePath
	}
	if opts.Port != 0 {
		cfg.Browser.Port = opts.Port
	}
	if opts.Headless {
		cfg.Browser.Headless = true
	}

	return cfg, cfg.Validate()
}

// newController assembles a controller from the configuration.
func newController(cfg *appconfig.Config) *devtools.Controller {
	client := devtools.NewClient(
		devtools.WithHost(cfg.Browser.Host),
		devtools.WithPort(cfg.Browser.Port),
		devtools.WithTransport(devtools.NewHTTPTransport(
			devtools.WithRequestTimeout(cfg.Browser.RequestTimeout),
		)),
	)

	return devtools.NewController(
		devtools.WithExecutable(cfg.Browser.ExecutablePath),
		devtools.WithDebuggingPort(cfg.Browser.Port),
		devtools.WithClient(client),
		devtools.WithStartupTimeout(cfg.Browser.StartupTimeout),
		devtools.WithPollInterval(cfg.Browser.PollInterval),
		devtools.WithTerminateGrace(cfg.Browser.TerminateGrace),
	)
}

// newPlanner selects the planner implementation from the configuration.
func newPlanner(cfg *appconfig.Config) (agent.Planner, error) {
	switch cfg.Planner.Provider {
	case appconfig.PlannerOpenAI:
		var llmOpts []agent.LLMPlannerOption
		if cfg.Planner.Model != "" {
			llmOpts = append(llmOpts, agent.WithModel(cfg.Planner.Model))
		}
		if cfg.Planner.BaseURL != "" {
			llmOpts = append(llmOpts, agent.WithBaseURL(cfg.Planner.BaseURL))
		}
		return agent.NewLLMPlanner("", llmOpts...)
	default:
		return &agent.RuleBasedPlanner{SearchEngine: cfg.Planner.SearchEngine}, nil
	}
}

// run plans the request and either prints the plan or executes it
// action by action, printing one JSON result per line.
func run(ctx context.Context, cfg *appconfig.Config, opts *options, request string) error {
	planner, err := newPlanner(cfg)
	if err != nil {
		return err
	}

	controller := newController(cfg)
	executor := agent.NewExecutor(planner, controller)

	if opts.PlanOnly {
		actions, err := executor.Plan(ctx, request)
		if err != nil {
			return err
		}
		for _, action := range actions {
			printJSON(action)
		}
		return nil
	}

	launched := false
	if !opts.NoLaunch {
		launchOpts := devtools.LaunchOptions{
			Headless:           cfg.Browser.Headless,
			UserDataDir:        cfg.Browser.UserDataDir,
			ExtraArgs:          cfg.Browser.ExtraArgs,
			TerminateOnFailure: cfg.Browser.TerminateOnFailure,
		}
		if err := controller.Launch(ctx, launchOpts); err != nil {
			return err
		}
		launched = true
	}
	defer func() {
		if launched && controller.IsRunning() {
			controller.Terminate()
		}
	}()

	return executor.Stream(ctx, request, func(_ devtools.Action, result devtools.Descriptor) {
		printJSON(result)
	})
}

// runBridgeCommand executes an allowlisted local command, merging the
// persisted command store with the configuration's commands.
func runBridgeCommand(ctx context.Context, cfg *appconfig.Config, name string, extraArgs []string) error {
	b, err := bridge.NewWithPatterns(cfg.Bridge.DeniedPatterns)
	if err != nil {
		return err
	}
	if cfg.Bridge.Timeout > 0 {
		b.SetTimeout(cfg.Bridge.Timeout)
	}

	store, err := appconfig.NewCommandStore("")
	if err != nil {
		return err
	}
	for cmdName, command := range store.All() {
		if err := b.Register(cmdName, command); err != nil {
			return err
		}
	}
	// Config file commands take precedence over persisted ones.
	for cmdName, command := range cfg.Bridge.Commands {
		if err := b.Register(cmdName, command); err != nil {
			return err
		}
	}

	result, err := b.Run(ctx, name, extraArgs)
	if result != nil {
		if result.Stdout != "" {
			fmt.Print(result.Stdout)
		}
		if result.Stderr != "" {
			fmt.Fprint(os.Stderr, result.Stderr)
		}
	}
	return err
}

func printJSON(v any) {
	encoded, err := json.Marshal(v)
	if err != nil {
		fmt.Println(v)
		return
	}
	fmt.Println(string(encoded))
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/parlascope/parlascope/internal/app"
	"github.com/parlascope/parlascope/internal/common"
	"github.com/parlascope/parlascope/internal/pipeline"
)

const usage = `Usage: parlascope [flags] <command> [command flags]

Commands:
  bootstrap   Populate the commission catalog from the chamber directories
  extract     Run one extraction pass (all enabled commissions, or -commission)
  serve       Run the extraction scheduler until interrupted
  ask         Answer a question over the indexed transcripts
  report      Generate the report or mind map for a stored session

Flags:
  -config PATH   Configuration file (default parlascope.toml when present)
  -version       Print version information
`

func main() {
	var (
		configPath  = flag.String("config", "", "Configuration file path")
		showVersion = flag.Bool("version", false, "Print version information")
	)
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if *showVersion {
		fmt.Printf("Parlascope version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	// Auto-discover config file if not specified
	path := *configPath
	if path == "" {
		if _, err := os.Stat("parlascope.toml"); err == nil {
			path = "parlascope.toml"
		}
	}

	config, err := common.LoadFromFile(path)
	if err != nil {
		arbor.NewLogger().Fatal().Err(err).Str("path", path).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(ctx, config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer application.Close()

	switch args[0] {
	case "bootstrap":
		err = runBootstrap(ctx, application)
	case "extract":
		err = runExtract(ctx, application, args[1:])
	case "serve":
		err = runServe(ctx, application)
	case "ask":
		err = runAsk(ctx, application, args[1:])
	case "report":
		err = runReport(ctx, application, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Error().Err(err).Str("command", args[0]).Msg("Command failed")
		os.Exit(1)
	}
}

func runBootstrap(ctx context.Context, application *app.App) error {
	total, err := application.Bootstrap(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Catalog bootstrapped: %d commissions\n", total)
	return nil
}

func runExtract(ctx context.Context, application *app.App, args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	commissionID := fs.String("commission", "", "Run a single commission (e.g. senate-188)")
	startFlag := fs.String("start", "", "Window start date (YYYY-MM-DD, default: commission watermark)")
	endFlag := fs.String("end", "", "Window end date (YYYY-MM-DD, default: now minus safety margin)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	start, err := parseDateFlag(*startFlag, application.Location)
	if err != nil {
		return err
	}
	end, err := parseDateFlag(*endFlag, application.Location)
	if err != nil {
		return err
	}

	if *commissionID != "" {
		result, err := application.Orchestrator.RunCommission(ctx, *commissionID, start, end)
		if err != nil {
			return err
		}
		printResult(*commissionID, result)
		return nil
	}

	results, err := application.Orchestrator.RunAll(ctx)
	if err != nil {
		return err
	}
	for id, result := range results {
		printResult(id, result)
	}
	return nil
}

func runServe(ctx context.Context, application *app.App) error {
	if err := application.Scheduler.Start(application.Config.Extraction.Schedule); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer application.Scheduler.Stop()

	<-ctx.Done()
	return nil
}

func runAsk(ctx context.Context, application *app.App, args []string) error {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	commissionID := fs.String("commission", "", "Restrict retrieval to one commission")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: parlascope ask [flags] \"question\"")
	}

	if err := application.InitProcessing(); err != nil {
		return err
	}

	filters := map[string]any{}
	if *commissionID != "" {
		filters["commission_id"] = *commissionID
	}

	answer, err := application.QA.Ask(ctx, fs.Arg(0), filters)
	if err != nil {
		return err
	}

	fmt.Println(answer.Text)
	if len(answer.Citations) > 0 {
		fmt.Println("\nFuentes:")
		for marker, sessionKey := range answer.Citations {
			fmt.Printf("  %s sesión %s\n", marker, sessionKey)
		}
	}
	return nil
}

func runReport(ctx context.Context, application *app.App, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	commissionID := fs.String("commission", "", "Commission id (e.g. senate-188)")
	sessionID := fs.Int("session", 0, "Session id on the chamber site")
	mindmap := fs.Bool("mindmap", false, "Generate the JSON mind map instead of the report")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *commissionID == "" || *sessionID == 0 {
		return fmt.Errorf("usage: parlascope report -commission ID -session ID [-mindmap]")
	}

	if err := application.InitProcessing(); err != nil {
		return err
	}

	commission, err := application.StorageManager.CommissionStorage().FindCommission(ctx, *commissionID)
	if err != nil {
		return err
	}
	session, err := application.StorageManager.SessionStorage().GetSession(ctx, *commissionID, *sessionID)
	if err != nil {
		return err
	}

	var output string
	if *mindmap {
		output, err = application.Summary.Mindmap(ctx, commission, session)
	} else {
		output, err = application.Summary.Summarize(ctx, commission, session)
	}
	if err != nil {
		return err
	}

	fmt.Println(output)
	return nil
}

func parseDateFlag(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", value, err)
	}
	return t.UTC(), nil
}

func printResult(commissionID string, result *pipeline.Result) {
	fmt.Printf("%s: %d discovered, %d transcribed, %d indexed, %d without media, %d failed\n",
		commissionID, result.Discovered, result.Transcribed, result.Indexed, result.Missing, result.Failed)
}

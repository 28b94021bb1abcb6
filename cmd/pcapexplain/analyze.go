package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tturner/pcapexplain/internal/analysis"
	"github.com/tturner/pcapexplain/internal/capture"
	"github.com/tturner/pcapexplain/internal/config"
	"github.com/tturner/pcapexplain/internal/errors"
	"github.com/tturner/pcapexplain/internal/llm"
	"github.com/tturner/pcapexplain/internal/logging"
	"github.com/tturner/pcapexplain/internal/metrics"
	"github.com/tturner/pcapexplain/internal/progress"
	"github.com/tturner/pcapexplain/internal/prompt"
	"github.com/tturner/pcapexplain/internal/report"
	"github.com/tturner/pcapexplain/internal/retry"
	"github.com/tturner/pcapexplain/internal/ui"
)

type sourceFlags struct {
	configFile string
	envFile    string
}

type analyzeFlags struct {
	sourceFlags

	endpoint      string
	model         string
	batchSize     int
	workers       int
	maxRetries    int
	timeout       string
	tsharkPath    string
	displayFilter string
	maxPackets    int
	outputDir     string
	promptsDir    string
	html          bool
	json          bool
	interactive   bool
	copy          bool
	noProgress    bool
	verbose       bool
	debug         bool
	quiet         bool
	logFile       string
	metricsFile   string
}

func newAnalyzeCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &analyzeFlags{}

	cmd := &cobra.Command{
		Use:   "analyze <capture-file> [question]",
		Short: "Analyze a capture file in batches and summarize it",
		Long: `Decode a capture with tshark, split the packets into batches, ask the model
to explain each batch and consolidate the explanations into one summary.

The optional question focuses both the batch analyses and the summary.
Words after the capture file are joined into one question.

The endpoint, key and model come from OPENAI_ENDPOINT, OPENAI_API_KEY and
MODEL in .env or the environment, or from --config.`,
		Example: `  # Describe the traffic in a capture
  pcapexplain analyze office.pcapng

  # Ask a question, 25 packets per batch
  pcapexplain analyze office.pcapng "Why do TLS handshakes fail?" --batch-size 25

  # Only DNS, with an HTML report
  pcapexplain analyze office.pcapng --display-filter dns --html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if len(args) == 0 {
				return missingArgError(cmd, "<capture-file>")
			}
			question := strings.TrimSpace(strings.Join(args[1:], " "))
			return runAnalyze(cmd, flags, args[0], question, stdout, stderr)
		},
	}

	addSourceFlags(cmd, &flags.sourceFlags)
	cmd.Flags().StringVar(&flags.endpoint, "endpoint", "", "OpenAI-compatible endpoint URL (overrides OPENAI_ENDPOINT)")
	cmd.Flags().StringVar(&flags.model, "model", "", "Model name (overrides MODEL)")
	cmd.Flags().IntVar(&flags.batchSize, "batch-size", config.Default().BatchSize, "Packets per batch")
	cmd.Flags().IntVar(&flags.workers, "workers", config.Default().Workers, "Batches analyzed concurrently")
	cmd.Flags().IntVar(&flags.maxRetries, "max-retries", config.Default().Retry.MaxRetries, "Retries per model call on transient errors")
	cmd.Flags().StringVar(&flags.timeout, "timeout", config.Default().LLM.Timeout, "Per-request model timeout")
	cmd.Flags().StringVar(&flags.tsharkPath, "tshark", "", "Path to tshark (default: TSHARK, PATH)")
	cmd.Flags().StringVar(&flags.displayFilter, "display-filter", "", "tshark display filter applied before batching")
	cmd.Flags().IntVar(&flags.maxPackets, "max-packets", 0, "Read at most N packets (0 = all)")
	cmd.Flags().StringVar(&flags.outputDir, "output-dir", config.Default().OutputDir, "Directory for summary.txt and details.txt")
	cmd.Flags().StringVar(&flags.promptsDir, "prompts-dir", "", "Directory with batch.tmpl/summary.tmpl overrides")
	cmd.Flags().BoolVar(&flags.html, "html", false, "Also write summary.html")
	cmd.Flags().BoolVar(&flags.json, "json", false, "Also write analysis.json")
	cmd.Flags().BoolVarP(&flags.interactive, "interactive", "i", false, "Ask for the question in a form")
	cmd.Flags().BoolVar(&flags.copy, "copy", false, "Copy the summary to the clipboard")
	cmd.Flags().BoolVar(&flags.noProgress, "no-progress", false, "Disable the progress bar")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Verbose logging")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "Debug logging")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "Only log errors")
	cmd.Flags().StringVar(&flags.logFile, "log-file", "", "Also write JSON logs to this file")
	cmd.Flags().StringVar(&flags.metricsFile, "metrics-file", "", "Write per-call model metrics as CSV")

	return cmd
}

func addSourceFlags(cmd *cobra.Command, flags *sourceFlags) {
	cmd.Flags().StringVar(&flags.configFile, "config", "", "Config file (.yaml, .yml or .toml)")
	cmd.Flags().StringVar(&flags.envFile, "env", "", "Env file (default ./.env if present)")
}

func loadConfig(flags *sourceFlags) (*config.Config, error) {
	return config.Load(config.LoadOptions{
		ConfigPath:  flags.configFile,
		EnvPath:     flags.envFile,
		EnvExplicit: flags.envFile != "",
	})
}

// applyFlags overrides cfg with the flags the user actually set.
func applyFlags(cmd *cobra.Command, flags *analyzeFlags, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("endpoint") {
		cfg.LLM.Endpoint = flags.endpoint
	}
	if changed("model") {
		cfg.LLM.Model = flags.model
	}
	if changed("timeout") {
		cfg.LLM.Timeout = flags.timeout
	}
	if changed("max-retries") {
		cfg.Retry.MaxRetries = flags.maxRetries
	}
	if changed("batch-size") {
		cfg.BatchSize = flags.batchSize
	}
	if changed("workers") {
		cfg.Workers = flags.workers
	}
	if changed("tshark") {
		cfg.TsharkPath = flags.tsharkPath
	}
	if changed("output-dir") {
		cfg.OutputDir = flags.outputDir
	}
}

func runAnalyze(cmd *cobra.Command, flags *analyzeFlags, capturePath, question string, stdout, stderr io.Writer) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(&flags.sourceFlags)
	if err != nil {
		return err
	}
	applyFlags(cmd, flags, cfg)
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Level:   logging.LevelFromFlags(flags.verbose, flags.debug, flags.quiet),
		LogFile: flags.logFile,
		Console: stderr,
		NoColor: !progress.IsTerminal(stderr),
	})
	if err != nil {
		return err
	}
	defer logger.Close()

	captureName := filepath.Base(capturePath)
	if flags.interactive {
		question, err = ui.AskQuestion(captureName, question)
		if err != nil {
			if errors.Is(err, ui.ErrAborted) {
				return fmt.Errorf("%w: %w", errors.ErrCancelled, err)
			}
			return fmt.Errorf("question form: %w", err)
		}
	}

	// tshark and the capture should agree on the packet count unless a
	// filter or limit is applied.
	crossCheck := flags.displayFilter == "" && flags.maxPackets == 0
	var inspected *capture.Info
	if crossCheck || logger.Enabled(logging.LogLevelVerbose) {
		if info, err := capture.Inspect(capturePath); err == nil {
			logger.Verbose("capture: %s", info)
			inspected = &info
		} else {
			logger.Debug("capture header not inspected: %v", err)
		}
	}

	client, err := llm.NewClient(llm.Config{
		Endpoint:    cfg.LLM.Endpoint,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.RequestTimeout(),
	})
	if err != nil {
		return &errors.ConfigError{Reason: "create model client", Err: err}
	}
	policy := retryPolicy(cfg.Retry)
	logger.LogStartup(capturePath, cfg.BatchSize, cfg.Workers, client.Model(), llm.BaseURL(cfg.LLM.Endpoint), policy.Schedule())

	prompts := prompt.NewBuilder(captureName, flags.promptsDir)
	sink := metrics.NewSink()

	reporter := progress.NewReporter(stderr, "Analyzing")
	if flags.noProgress || flags.quiet {
		reporter.Disable()
	}

	pipeline := &analysis.Pipeline{
		Source: &capture.Source{
			TsharkPath:    cfg.TsharkPath,
			DisplayFilter: flags.displayFilter,
			MaxPackets:    flags.maxPackets,
			Logger:        logger,
		},
		Analyzer:   &analysis.Analyzer{Completer: client, Prompts: prompts, Policy: policy, Metrics: sink, Logger: logger},
		Aggregator: &analysis.Aggregator{Completer: client, Prompts: prompts, Policy: policy, Metrics: sink, Logger: logger},
		BatchSize:  cfg.BatchSize,
		Workers:    cfg.Workers,
		Model:      client.Model(),
		Metrics:    sink,
		Observers:  []progress.Observer{reporter},
		Logger:     logger,
	}

	result, err := pipeline.Run(ctx, analysis.Request{CaptureFile: capturePath, Question: question})
	reporter.Finish()
	var sumErr *errors.SummaryError
	summaryFailed := errors.As(err, &sumErr)
	if crossCheck && inspected != nil && (err == nil || summaryFailed) {
		checkPacketCount(logger, *inspected, result.PacketCount)
	}
	writeMetrics(flags.metricsFile, sink, logger)
	display := ui.NewDisplay(stdout)
	if err != nil {
		if summaryFailed {
			// Batch work is not lost when only the summary failed.
			display.Details(result)
		}
		return err
	}
	logger.Info("analysis finished in %s", reporter.Elapsed())

	out := report.Sink{Dir: cfg.OutputDir, HTML: flags.html, JSON: flags.json, Version: version}
	artifacts, werr := out.Write(result)
	if werr != nil {
		display.Result(result, artifacts.Paths())
		display.Details(result)
		ui.NewDisplay(stderr).Error(errors.Friendly(werr))
	} else {
		display.Result(result, artifacts.Paths())
	}

	if flags.copy {
		if err := ui.CopyText(report.RenderSummary(result)); err != nil {
			ui.NewDisplay(stderr).Warn("summary not copied: %v", err)
		} else {
			logger.Info("summary copied to clipboard")
		}
	}
	return nil
}

// checkPacketCount warns when tshark decoded a different number of packets
// than the capture file holds.
func checkPacketCount(logger *logging.Logger, info capture.Info, decoded int) {
	if info.Packets == decoded {
		return
	}
	logger.Warn("tshark decoded %d packet(s) but %s holds %d; the analysis may be incomplete",
		decoded, filepath.Base(info.Path), info.Packets)
}

// writeMetrics logs the call statistics and, if path is set, writes them as
// CSV. Failures only warn.
func writeMetrics(path string, sink *metrics.Sink, logger *logging.Logger) {
	if logger.Enabled(logging.LogLevelVerbose) {
		logger.Verbose("model call statistics:\n%s", metrics.FormatSummary(sink.GetSummary()))
	}
	if path == "" {
		return
	}
	if err := metrics.WriteCSV(path, sink.GetMetrics()); err != nil {
		logger.Warn("metrics not written: %v", err)
		return
	}
	logger.Info("metrics written to %s", path)
}

func retryPolicy(rc config.RetryConfig) retry.Policy {
	policy := retry.Default()
	policy.MaxRetries = rc.MaxRetries
	policy.InitialBackoff, policy.MaxBackoff = rc.Backoff()
	policy.Multiplier = rc.Multiplier
	policy.Retryable = llm.IsTransient
	return policy
}

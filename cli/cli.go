// Package cli implements the command-line surface of tracevis.
package cli

import (
	"fmt"
	"time"

	cli "github.com/urfave/cli/v2"

	"github.com/tracevis/tracevis/config"
	"github.com/tracevis/tracevis/filter"
	"github.com/tracevis/tracevis/logging"
	"github.com/tracevis/tracevis/version"
)

// parseDate attempts to parse the build date
func parseDate(d string) time.Time {
	t, err := time.Parse(time.RFC3339, d)
	if err != nil {
		return time.Now()
	}
	return t
}

// Shared flag definitions to eliminate duplication
var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "Path to TOML configuration file",
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "logLevel",
		Usage: "Log level (trace, debug, info, warn, error)",
	}

	inputFlag = &cli.StringFlag{
		Name:    "input",
		Aliases: []string{"i"},
		Usage:   "Input log file",
	}
	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Name of output filtered log file (.gz compresses)",
	}
	filterFlag = &cli.StringSliceFlag{
		Name:    "filter",
		Aliases: []string{"f"},
		Usage:   "Filter criteria (format: type=value), repeatable",
	}
	countFlag = &cli.BoolFlag{
		Name:    "processCounts",
		Aliases: []string{"c"},
		Usage:   "Count specific categories (TID, UNIT, AREA, CLUSTER, QUAD)",
	}
	helpFiltersFlag = &cli.BoolFlag{
		Name:  "help-filters",
		Usage: "Show help for filter formats",
	}
	workersFlag = &cli.IntFlag{
		Name:  "workers",
		Usage: "Worker count for count mode",
	}
	plotFlag = &cli.StringFlag{
		Name:  "plot",
		Usage: "Path where to save the quad heatmap (e.g., '/path/to/heatmap.html')",
	}
	tuiFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Browse count results in a TUI instead of the prompt loop",
	}

	// generate-specific flags
	linesFlag = &cli.IntFlag{
		Name:  "lines",
		Usage: "Number of log lines to generate",
		Value: 250000,
	}
	seedFlag = &cli.Int64Flag{
		Name:  "seed",
		Usage: "Random seed for generated content",
		Value: 1,
	}
	startTimeFlag = &cli.Float64Flag{
		Name:  "startTime",
		Usage: "Timestamp (fractional seconds) of the first generated line",
		Value: 1726671833.525302,
	}

	// live-specific flags
	listenFlag = &cli.StringFlag{
		Name:  "listen",
		Usage: "Address to accept lumberjack connections on",
	}
	liveLogFileFlag = &cli.StringFlag{
		Name:  "logFile",
		Usage: "File that received trace lines are appended to",
	}
)

// loadConfig resolves the configuration for a command invocation: defaults,
// then the config file, then flag overrides, then logger setup.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("workers") {
		cfg.Engine.Workers = c.Int("workers")
	}
	if c.IsSet("output") {
		cfg.Filter.Output = c.String("output")
	}
	if c.IsSet("listen") {
		cfg.Live.Listen = c.String("listen")
	}
	if c.IsSet("logFile") {
		cfg.Live.LogFile = c.String("logFile")
	}
	if c.IsSet("logLevel") {
		cfg.Log.Level = c.String("logLevel")
	}

	if err := logging.Setup(cfg.Log.Level); err != nil {
		return nil, err
	}
	return cfg, nil
}

func handleRoot(c *cli.Context) error {
	if c.Bool("help-filters") {
		fmt.Print(filter.Help)
		return nil
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	input := c.String("input")
	if input == "" {
		return fmt.Errorf("input log file is required (use -i)")
	}

	if c.Bool("processCounts") {
		return runCount(cfg, input, c.String("plot"), c.Bool("tui"))
	}
	return runFilter(cfg, input, c.StringSlice("filter"))
}

func handleGenerate(c *cli.Context) error {
	if _, err := loadConfig(c); err != nil {
		return err
	}

	output := c.String("output")
	if output == "" {
		output = "logs.csv"
	}
	return runGenerate(output, c.Int("lines"), c.Float64("startTime"), c.Int64("seed"))
}

func handleLive(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	return runLive(cfg)
}

var App = &cli.App{
	Name:     "tracevis",
	Usage:    "filter a huge log file",
	Version:  version.Version,
	Compiled: parseDate(version.Date),
	Flags: []cli.Flag{
		configFlag,
		inputFlag,
		outputFlag,
		filterFlag,
		countFlag,
		helpFiltersFlag,
		workersFlag,
		plotFlag,
		tuiFlag,
		logLevelFlag,
	},
	Action: handleRoot,
	Commands: []*cli.Command{
		{
			Name:  "generate",
			Usage: "Generate a synthetic trace log file",
			Flags: []cli.Flag{
				configFlag,
				outputFlag,
				linesFlag,
				seedFlag,
				startTimeFlag,
				logLevelFlag,
			},
			Action: handleGenerate,
		},
		{
			Name:  "live",
			Usage: "Receive trace lines over lumberjack and append them to a log file",
			Flags: []cli.Flag{
				configFlag,
				listenFlag,
				liveLogFileFlag,
				logLevelFlag,
			},
			Action: handleLive,
		},
	},
}

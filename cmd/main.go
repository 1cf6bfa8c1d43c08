package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/richard-senior/matchpredict/internal/config"
	"github.com/richard-senior/matchpredict/internal/logger"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, cfg *config.Config, args []string) error
}

var commands = []command{
	{"serve", "run the dashboard (default)", runServe},
	{"mcp", "run the MCP server on stdin/stdout", runMCP},
	{"teams", "list teams with match statistics", runTeams},
	{"predict", "predict a fixture: -home TEAM -away TEAM", runPredict},
	{"evaluate", "score the model against the loaded fixtures", runEvaluate},
	{"export-training", "write the training table: -out FILE", runExportTraining},
	{"label-sentiment", "label free-text records: -in FILE -out FILE [-text COL -team COL]", runLabelSentiment},
	{"fetch", "download season results into the data dir [-discover URL]", runFetch},
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [-config path] <command> [flags]\n\ncommands:\n", os.Args[0])
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-16s %s\n", c.name, c.usage)
	}
	fmt.Fprintln(os.Stderr)
	flag.PrintDefaults()
}

func main() {
	configPath := flag.String("config", os.Getenv("MATCHPREDICT_CONFIG"), "path to a YAML config file")
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Invalid configuration:", err)
		os.Exit(2)
	}

	name, args := "serve", flag.Args()
	if len(args) > 0 {
		name, args = args[0], args[1:]
	}
	var cmd *command
	for i := range commands {
		if commands[i].name == name {
			cmd = &commands[i]
		}
	}
	if cmd == nil {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		usage()
		os.Exit(2)
	}

	// stdout carries the protocol stream in MCP mode
	output := cfg.LogOutputRune()
	if name == "mcp" {
		switch output {
		case 'c':
			output = 'e'
		case 'b':
			output = 'f'
		}
	}
	if err := configureLogging(cfg, output); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to configure logging:", err)
		os.Exit(2)
	}
	defer logger.Close()

	logger.Info("Starting matchpredict", name)
	for i, arg := range args {
		logger.Debug(fmt.Sprintf("Argument %d:", i+1), arg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.run(ctx, cfg, args); err != nil {
		stop()
		logger.Fatal(name+" failed:", err)
	}
}

func configureLogging(cfg *config.Config, output rune) error {
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	logger.SetShowDateTime(cfg.Log.DateTime)
	logger.SetColour(cfg.Log.Colour && output == 'c')
	return logger.SetLogOutput(output, cfg.Log.File)
}

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pfrederiksen/eventscrape/internal/config"
	"github.com/pfrederiksen/eventscrape/internal/logger"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess   = 0
	ExitError     = 1
	ExitNewEvents = 2
)

// ExitCodeError reports a non-zero exit status that is not a failure
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

type rootOptions struct {
	configPath string
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	root := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "eventscrape",
		Short: "Extract events from arbitrary web pages",
		Long: `A CLI tool that extracts event listings from web pages.
Structured data, site-specific handlers and text mining are tried in order and the
first confident result wins.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&root.configPath, "config", "", "Config file (default ./eventscrape.yaml or ~/.eventscrape/eventscrape.yaml)")

	cmd.AddCommand(newExtractCmd(root))
	cmd.AddCommand(newHandlersCmd(root))
	return cmd
}

// setup loads configuration and installs the default logger writing to w
func setup(root *rootOptions, verbose bool, w io.Writer) (*config.Config, error) {
	cfg, err := config.Load(root.configPath)
	if err != nil {
		return nil, err
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, logger.Encoding(cfg.Log.Encoding), w))
	return cfg, nil
}

// Execute runs the CLI and returns the process exit code
func Execute() int {
	err := NewRootCmd().Execute()
	_ = logger.Default().Sync()
	if err == nil {
		return ExitSuccess
	}

	var exit *ExitCodeError
	if errors.As(err, &exit) {
		return exit.Code
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return ExitError
}

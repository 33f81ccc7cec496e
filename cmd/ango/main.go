// Command ango renders, diffs and inspects tree documents.
package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/vango-dev/ango/internal/config"
	"github.com/vango-dev/ango/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// cli holds state shared by every command.
type cli struct {
	configPath string
	noColor    bool

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Fprint(os.Stderr, errors.Classify(err, ""))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "ango",
		Short: "Render and inspect component trees",
		Long: `ango reconciles tree documents against an in-memory host tree.

Documents are JSON or YAML. They describe a root node and, optionally,
template components with props, state and {{path}} placeholders.

Examples:
  ango render page.yaml
  ango diff before.json after.json
  ango inspect page.yaml --addr=localhost:7070`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Config file (default: ango.json or ango.yaml in the project root)")
	rootCmd.PersistentFlags().BoolVar(&c.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		renderCmd(c),
		diffCmd(c),
		inspectCmd(c),
		versionCmd(),
	)
	return rootCmd
}

// setup loads the configuration and installs the logger.
func (c *cli) setup(stderr io.Writer) error {
	if c.noColor || !isTerminal(stderr) {
		errors.DisableColors()
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return errors.Classify(err, c.configPath)
	}
	c.cfg = cfg
	c.logger = slog.New(cfg.Log.Handler(stderr))
	slog.SetDefault(c.logger)
	return nil
}

func (c *cli) loadConfig() (*config.Config, error) {
	if c.configPath != "" {
		return config.LoadFile(c.configPath)
	}
	root, err := config.FindProjectRoot(".")
	if stderrors.Is(err, config.ErrNotFound) {
		return config.New(), nil
	}
	if err != nil {
		return nil, err
	}
	return config.Load(root)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

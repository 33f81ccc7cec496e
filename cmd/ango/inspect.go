package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/ango/internal/errors"
	"github.com/vango-dev/ango/internal/inspect"
	"github.com/vango-dev/ango/pkg/doc"
)

func inspectCmd(c *cli) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Serve a live tree over HTTP",
		Long: `Start the inspector. When a file is given it is rendered first.

Routes:
  GET  /tree        live tree (JSON, or ?format=markup)
  GET  /mutations   committed mutation batches (?since=<seq>, ?format=text)
  POST /render      reconcile a posted JSON or YAML document
  GET  /metrics     Prometheus metrics
  GET  /ws          websocket stream of mutation batches

Examples:
  ango inspect
  ango inspect page.yaml --addr=0.0.0.0:7070`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.cfg.Inspect.Addr
			}
			return runInspect(cmd, c, addr, args)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")

	return cmd
}

func runInspect(cmd *cobra.Command, c *cli, addr string, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := inspect.New(c.cfg, inspect.WithLogger(c.logger))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(ctx, addr)
	}()

	if len(args) == 1 {
		batch, err := renderFile(ctx, s, args[0])
		if err != nil {
			stop()
			if serveErr := <-errCh; serveErr != nil {
				return serveErr
			}
			return errors.Classify(err, args[0])
		}
		success(cmd.OutOrStdout(), "Rendered %s (%d mutations)", args[0], len(batch.Mutations))
	}

	success(cmd.OutOrStdout(), "Inspector on http://%s", addr)
	return <-errCh
}

func renderFile(ctx context.Context, s *inspect.Server, path string) (inspect.Batch, error) {
	d, err := doc.DecodeFile(path)
	if err != nil {
		return inspect.Batch{}, err
	}
	return s.Render(ctx, d)
}

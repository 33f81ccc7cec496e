package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/ango/internal/errors"
	"github.com/vango-dev/ango/pkg/doc"
	"github.com/vango-dev/ango/pkg/host"
	"github.com/vango-dev/ango/pkg/host/memhost"
	"github.com/vango-dev/ango/pkg/render"
)

func renderCmd(c *cli) *cobra.Command {
	var (
		compact bool
		ids     bool
		showLog bool
	)

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a tree document",
		Long: `Decode a tree document, mount it into an empty in-memory tree
and print the resulting markup.

Examples:
  ango render page.yaml
  ango render page.json --log
  ango render page.json --compact --ids`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := c.newSession()
			if _, err := s.mountFile(cmd.Context(), args[0]); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if showLog {
				fmt.Fprint(out, memhost.FormatLog(s.host.TakeLog()))
				return nil
			}
			fmt.Fprintln(out, s.markup(!compact, ids))
			return nil
		},
	}

	cmd.Flags().BoolVar(&compact, "compact", false, "Print markup on one line")
	cmd.Flags().BoolVar(&ids, "ids", false, "Annotate elements with their node ids")
	cmd.Flags().BoolVar(&showLog, "log", false, "Print the mutation log instead of markup")

	return cmd
}

// session is one renderer over a fresh in-memory tree.
type session struct {
	host      *memhost.Document
	container *memhost.Node
	renderer  *render.Renderer
	registry  *doc.Registry
	root      host.Node
}

func (c *cli) newSession() *session {
	h := memhost.New()
	opts := append(c.cfg.RenderOptions(), render.WithLogger(c.logger))
	return &session{
		host:      h,
		container: h.Container("body"),
		renderer:  render.New(h, opts...),
		registry:  doc.NewRegistry(),
	}
}

// mountFile decodes path and reconciles it against the session's root,
// then flushes any updates the mount scheduled. Errors are classified
// against path.
func (s *session) mountFile(ctx context.Context, path string) (host.Node, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	d, err := doc.DecodeFile(path)
	if err != nil {
		return nil, errors.Classify(err, path)
	}
	v, err := d.Build(s.registry)
	if err != nil {
		return nil, errors.Classify(err, path)
	}
	root, err := s.renderer.Mount(ctx, v, s.container, s.root)
	if err != nil {
		return nil, errors.Classify(err, path)
	}
	s.root = root
	if err := s.renderer.Flush(ctx); err != nil {
		return nil, errors.Classify(err, path)
	}
	return root, nil
}

func (s *session) markup(pretty, ids bool) string {
	root := memhost.N(s.root)
	if root == nil {
		return ""
	}
	return memhost.Markup(root, memhost.MarkupOptions{Pretty: pretty, IDs: ids})
}

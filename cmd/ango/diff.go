package main

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/vango-dev/ango/pkg/host/memhost"
)

func diffCmd(c *cli) *cobra.Command {
	var (
		asJSON     bool
		showMarkup bool
	)

	cmd := &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Print the host mutations that turn one document into another",
		Long: `Mount the old document, reconcile the new one against it and print
the host mutations the second pass performed.

Components defined in both documents under the same name and with the
same default props keep their instances, so their state survives.

Examples:
  ango diff before.yaml after.yaml
  ango diff before.json after.json --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := c.newSession()
			if _, err := s.mountFile(cmd.Context(), args[0]); err != nil {
				return err
			}
			s.host.ResetLog()
			if _, err := s.mountFile(cmd.Context(), args[1]); err != nil {
				return err
			}
			log := s.host.TakeLog()

			out := cmd.OutOrStdout()
			if asJSON {
				data, err := json.MarshalIndent(log, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}
			fmt.Fprint(out, memhost.FormatLog(log))
			if showMarkup {
				fmt.Fprintln(out)
				fmt.Fprintln(out, s.markup(true, false))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the mutations as JSON")
	cmd.Flags().BoolVar(&showMarkup, "markup", false, "Also print the resulting markup")

	return cmd
}

package main

import (
	"github.com/spf13/cobra"
)

func newShowCommand(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an entry with its chains, relatives and structure status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := a.browser(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = b.Close() }()
			d, err := b.Detail(ctx, args[0])
			if err != nil {
				return err
			}
			return writeDetail(a.stdout, output, d)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", formatTable, "output format: table|json|yaml")
	return cmd
}

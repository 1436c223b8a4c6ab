package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newStructureCommand(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "structure <id>",
		Short: "Download an entry's PDB structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := a.browser(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = b.Close() }()

			e, err := b.Select(ctx, args[0])
			if err != nil {
				return err
			}
			st, err := b.Structure(ctx, e.ID)
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = io.WriteString(a.stdout, st.Text)
				return err
			}
			if err := os.WriteFile(out, []byte(st.Text), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			a.logger.Info("structure written", "id", e.ID, "path", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "destination file (default stdout)")
	return cmd
}

func newStructuresCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "structures",
		Short: "List the entry ids that have a structure file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			b, err := a.browser(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = b.Close() }()
			ids, err := b.StructureIDs(ctx)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if _, err := fmt.Fprintln(a.stdout, id); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

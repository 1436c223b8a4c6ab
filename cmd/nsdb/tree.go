package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/brunocuevas/nsdb/internal/phylo"
)

func newTreeCommand(a *app) *cobra.Command {
	var svgPath string
	cmd := &cobra.Command{
		Use:   "tree <id>",
		Short: "Locate an entry on the reference tree",
		Long: "Print the highlighted and labelled nodes of the reference tree for an entry,\n" +
			"or render the annotated tree as SVG with --svg.",
		Args: cobra.ExactArgs(1),
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
			switch svgPath {
			case "":
				return writeAnnotation(a.stdout, b.ReferenceTree(), b.Tree(e))
			case "-":
				return b.TreeSVG(a.stdout, e)
			}
			f, err := os.Create(svgPath)
			if err != nil {
				return err
			}
			if err := b.TreeSVG(f, e); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVar(&svgPath, "svg", "", `write the annotated tree as SVG to this file ("-" for stdout)`)
	return cmd
}

// writeAnnotation lists the labelled nodes and tips of the annotation.
func writeAnnotation(w io.Writer, tree *phylo.Tree, ann phylo.Annotation) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "query tip:\t%s\n", ann.QueryTip)
	_, _ = fmt.Fprintf(tw, "query node:\t%s\n", ann.QueryNode)
	_, _ = fmt.Fprintln(tw, "\nKIND\tNAME\tLABEL\tCOLOR")
	for i, name := range tree.NodeNames() {
		if ann.NodeLabels[i] == "" && ann.NodeColors[i] != phylo.ColorHighlight {
			continue
		}
		_, _ = fmt.Fprintf(tw, "node\t%s\t%s\t%s\n", name, ann.NodeLabels[i], ann.NodeColors[i])
	}
	for i, name := range tree.Tips() {
		if ann.TipLabels[i] == "" && ann.TipColors[i] != phylo.ColorHighlight {
			continue
		}
		_, _ = fmt.Fprintf(tw, "tip\t%s\t%s\t%s\n", name, ann.TipLabels[i], ann.TipColors[i])
	}
	return tw.Flush()
}

package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/brunocuevas/nsdb/internal/core"
	"github.com/brunocuevas/nsdb/pkg/domain"
)

// Output formats accepted by --output.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatCSV   = "csv"
)

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func writeEntries(w io.Writer, format string, entries []domain.Entry) error {
	if entries == nil {
		entries = []domain.Entry{}
	}
	switch format {
	case formatTable:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, strings.ToUpper(strings.Join(domain.ResultColumns, "\t")))
		for _, e := range entries {
			_, _ = fmt.Fprintln(tw, strings.Join(e.Row(), "\t"))
		}
		return tw.Flush()
	case formatJSON:
		return encodeJSON(w, entries)
	case formatYAML:
		return encodeYAML(w, entries)
	case formatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(domain.ResultColumns); err != nil {
			return err
		}
		for _, e := range entries {
			if err := cw.Write(e.Row()); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func writeDetail(w io.Writer, format string, d core.Detail) error {
	switch format {
	case formatTable:
		return detailTable(w, d)
	case formatJSON:
		return encodeJSON(w, d)
	case formatYAML:
		return encodeYAML(w, d)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func detailTable(w io.Writer, d core.Detail) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, col := range domain.ResultColumns {
		_, _ = fmt.Fprintf(tw, "%s:\t%s\n", col, d.Entry.Row()[i])
	}
	_, _ = fmt.Fprintf(tw, "taxon_id:\t%s\n", d.Entry.TaxonID)

	_, _ = fmt.Fprintln(tw, "\nCHAIN\tSUBUNIT\tPLDDT")
	for _, c := range d.Chains {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%.2f\n", c.Chain, c.Subunit, c.PLDDT)
	}

	_, _ = fmt.Fprintf(tw, "\nrelatives of %s:\n", d.RelativeKey)
	_, _ = fmt.Fprintln(tw, "TYPE\tRELATIVE")
	for _, r := range d.Relatives {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", r.Type, r.Relative)
	}

	_, _ = fmt.Fprintln(tw)
	switch {
	case d.Structure.Available:
		_, _ = fmt.Fprintf(tw, "structure:\t%s (%d bytes)\n", d.Structure.Filename, d.Structure.Size)
	case d.Structure.Error != "":
		_, _ = fmt.Fprintf(tw, "structure:\tunavailable: %s\n", d.Structure.Error)
	default:
		_, _ = fmt.Fprintln(tw, "structure:\tunavailable")
	}
	if d.Structure.URL != "" {
		_, _ = fmt.Fprintf(tw, "download:\t%s\n", d.Structure.URL)
	}
	return tw.Flush()
}

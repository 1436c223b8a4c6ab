package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/brunocuevas/nsdb/pkg/domain"
)

type searchFlags struct {
	output  string
	noTypes map[domain.NitrogenaseType]*bool
	noTiers map[domain.Tier]*bool
}

func newSearchCommand(a *app) *cobra.Command {
	f := &searchFlags{
		noTypes: make(map[domain.NitrogenaseType]*bool, len(domain.NitrogenaseTypes)),
		noTiers: make(map[domain.Tier]*bool, len(domain.Tiers)),
	}
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Search the catalog by id, name, lineage or taxon id",
		Long: "Search the catalog. The first matching rule applies:\n" +
			"  taxid:<n>   taxon id equals <n> exactly\n" +
			"  nsdb-<...>  entry id equals the whole term exactly\n" +
			"  otherwise   scientific name or lineage contains the term, ignoring case",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.search(cmd, strings.Join(args, " "), f)
		},
	}
	cmd.Flags().StringVarP(&f.output, "output", "o", formatTable, "output format: table|json|yaml|csv")
	for _, nt := range domain.NitrogenaseTypes {
		name := strings.ToLower(string(nt))
		f.noTypes[nt] = cmd.Flags().Bool("no-"+name, false, "hide "+string(nt)+" entries")
	}
	for _, tier := range domain.Tiers {
		name := string(tier)
		f.noTiers[tier] = cmd.Flags().Bool("no-"+name, false, "hide "+name+" entries (needs filters.expose_tiers)")
	}
	return cmd
}

func (f *searchFlags) toggles(exposeTiers bool) domain.Toggles {
	t := domain.DefaultToggles()
	for nt, off := range f.noTypes {
		t.Types[nt] = !*off
	}
	if exposeTiers {
		for tier, off := range f.noTiers {
			t.Tiers[tier] = !*off
		}
	}
	return t
}

func (a *app) search(cmd *cobra.Command, text string, f *searchFlags) error {
	ctx := cmd.Context()
	b, err := a.browser(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = b.Close() }()

	entries, err := b.Search(ctx, text, f.toggles(a.settings.Filters.ExposeTiers))
	if err != nil {
		return err
	}
	return writeEntries(a.stdout, f.output, entries)
}

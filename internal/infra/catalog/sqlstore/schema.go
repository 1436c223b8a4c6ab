package sqlstore

// Schema creates the three reference tables. Statements are portable across
// the supported dialects. seq preserves file order.
var Schema = []string{
	`DROP TABLE IF EXISTS phylo`,
	`DROP TABLE IF EXISTS chainref`,
	`DROP TABLE IF EXISTS ref`,
	`CREATE TABLE ref (
		id TEXT PRIMARY KEY,
		nitrogenase_type TEXT NOT NULL,
		scientific_name TEXT NOT NULL,
		variant TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		stoichiometry TEXT NOT NULL DEFAULT '',
		lineage TEXT NOT NULL DEFAULT '',
		taxon_id TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX ref_taxon_id_idx ON ref (taxon_id)`,
	`CREATE TABLE chainref (
		seq INTEGER NOT NULL,
		id TEXT NOT NULL,
		chain TEXT NOT NULL,
		plddt DOUBLE PRECISION NOT NULL,
		subunit TEXT NOT NULL DEFAULT '',
		sequence TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX chainref_id_idx ON chainref (id)`,
	`CREATE TABLE phylo (
		seq INTEGER NOT NULL,
		x TEXT NOT NULL,
		type TEXT NOT NULL,
		y TEXT NOT NULL
	)`,
	`CREATE INDEX phylo_x_idx ON phylo (x)`,
}

const (
	refColumns   = "id, nitrogenase_type, scientific_name, variant, status, stoichiometry, lineage, taxon_id"
	chainColumns = "id, chain, plddt, subunit, sequence"
)

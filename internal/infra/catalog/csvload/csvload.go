// Package csvload reads the reference, chain and phylogeny CSV files into
// domain rows with explicit column types.
package csvload

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/brunocuevas/nsdb/pkg/domain"
)

// ErrMissingColumn is wrapped when a required header is absent.
var ErrMissingColumn = errors.New("missing required column")

// Column names as they appear in the data files.
const (
	ColID              = "id"
	ColNitrogenaseType = "nitrogenase_type"
	ColScientificName  = "scientific_name"
	ColVariant         = "variant"
	ColStatus          = "status"
	ColStoichiometry   = "stoichiometry"
	ColLineage         = "lineage"
	ColTaxonID         = "taxon_id"
	ColChain           = "chain"
	ColPLDDT           = "plddt"
	ColSubunit         = "subunit"
	ColSequence        = "sequence"
	ColX               = "x"
	ColType            = "type"
	ColY               = "y"
)

// aliases maps spellings found in published data files to canonical names.
var aliases = map[string]string{
	"taxond_id":    ColTaxonID,
	"stochiometry": ColStoichiometry,
}

// Paths locates the three reference files.
type Paths struct {
	Reference string
	Chains    string
	Phylo     string
}

// Load reads all three files.
func Load(p Paths) (domain.Dataset, error) {
	var ds domain.Dataset
	var err error
	if ds.Entries, err = readFile(p.Reference, Entries); err != nil {
		return domain.Dataset{}, err
	}
	if ds.Chains, err = readFile(p.Chains, Chains); err != nil {
		return domain.Dataset{}, err
	}
	if ds.Phylo, err = readFile(p.Phylo, Phylo); err != nil {
		return domain.Dataset{}, err
	}
	return ds, nil
}

func readFile[T any](path string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	rows, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// Entries parses reference.csv. Values are kept verbatim apart from
// surrounding whitespace; taxon_id stays text.
func Entries(r io.Reader) ([]domain.Entry, error) {
	t, err := newTable(r, ColID, ColNitrogenaseType, ColScientificName, ColStatus, ColLineage)
	if err != nil {
		return nil, err
	}
	var out []domain.Entry
	for {
		rec, err := t.next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Entry{
			ID:              t.get(rec, ColID),
			NitrogenaseType: domain.NitrogenaseType(t.get(rec, ColNitrogenaseType)),
			ScientificName:  t.get(rec, ColScientificName),
			Variant:         t.get(rec, ColVariant),
			Status:          domain.Tier(t.get(rec, ColStatus)),
			Stoichiometry:   t.get(rec, ColStoichiometry),
			Lineage:         t.get(rec, ColLineage),
			TaxonID:         t.get(rec, ColTaxonID),
		})
	}
}

// Chains parses chain-reference.csv. An empty pLDDT reads as zero.
func Chains(r io.Reader) ([]domain.Chain, error) {
	t, err := newTable(r, ColID, ColChain)
	if err != nil {
		return nil, err
	}
	var out []domain.Chain
	for {
		rec, err := t.next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		var plddt float64
		if raw := t.get(rec, ColPLDDT); raw != "" {
			plddt, err = strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid pLDDT %q", t.line(), raw)
			}
		}
		out = append(out, domain.Chain{
			EntryID:  t.get(rec, ColID),
			Chain:    t.get(rec, ColChain),
			PLDDT:    plddt,
			Subunit:  t.get(rec, ColSubunit),
			Sequence: t.get(rec, ColSequence),
		})
	}
}

// Phylo parses phylogenetic-relationships.csv.
func Phylo(r io.Reader) ([]domain.PhyloRow, error) {
	t, err := newTable(r, ColX, ColType, ColY)
	if err != nil {
		return nil, err
	}
	var out []domain.PhyloRow
	for {
		rec, err := t.next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, domain.PhyloRow{X: t.get(rec, ColX), Type: t.get(rec, ColType), Y: t.get(rec, ColY)})
	}
}

type table struct {
	r     *csv.Reader
	index map[string]int
}

func newTable(r io.Reader, required ...string) (*table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty file: header row expected")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		name := normalize(h)
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		index[name] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}
	return &table{r: cr, index: index}, nil
}

func normalize(h string) string {
	name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	if canon, ok := aliases[name]; ok {
		return canon
	}
	return name
}

func (t *table) next() ([]string, error) {
	rec, err := t.r.Read()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read row: %w", err)
	}
	return rec, err
}

func (t *table) line() int {
	line, _ := t.r.FieldPos(0)
	return line
}

func (t *table) get(rec []string, col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

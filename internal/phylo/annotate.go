package phylo

import "github.com/brunocuevas/nsdb/pkg/domain"

// Color is a display color understood by the rendering sink. ColorNone
// renders as transparent.
type Color string

// Display colors used for annotations.
const (
	ColorHighlight  Color = "red"
	ColorNeutral    Color = "white"
	ColorBackground Color = "gray"
	ColorMuted      Color = "gray"
	ColorNone       Color = ""
)

// DefaultReferenceTips are the canonical extant taxa always labelled on the
// reference tree.
var DefaultReferenceTips = []string{
	"Nif_Rhodopseudomonas_palustris",
	"Nif_Azotobacter_vinelandii",
	"Anf_Azotobacter_vinelandii",
	"Vnf_Azotobacter_vinelandii",
	"Nif_Clostridium_pasteurianum",
	"Nif_Methanotorris_igneus",
	"Nif_Geoalkalibacter_ferrihydriticus",
	"Nif_Lucifera_butyrica",
	"Nif_Orenia_metallireducens",
	"Nif_Desulfobacca_acetoxidans",
}

// DefaultReferenceNodes are the canonical ancestral reconstructions always
// labelled on the reference tree. The duplicate entry is harmless.
var DefaultReferenceNodes = []string{"anc_1206", "anc_821", "anc_1345", "anc_808", "anc_1352", "anc_821"}

// Annotation carries per-node and per-tip display labels and colors,
// positionally aligned with Tree.InternalNodes and Tree.TipNodes.
type Annotation struct {
	QueryTip   string   `json:"query_tip" yaml:"query_tip"`
	QueryNode  string   `json:"query_node" yaml:"query_node"`
	NodeLabels []string `json:"node_labels" yaml:"node_labels"`
	NodeColors []Color  `json:"node_colors" yaml:"node_colors"`
	TipLabels  []string `json:"tip_labels" yaml:"tip_labels"`
	TipColors  []Color  `json:"tip_colors" yaml:"tip_colors"`
}

// Annotator highlights a selection on a fixed reference tree.
type Annotator struct {
	tree  *Tree
	tips  map[string]struct{}
	nodes map[string]struct{}
}

// NewAnnotator builds an annotator over tree with the given reference sets.
func NewAnnotator(tree *Tree, referenceTips, referenceNodes []string) *Annotator {
	return &Annotator{tree: tree, tips: toSet(referenceTips), nodes: toSet(referenceNodes)}
}

// Tree returns the annotated reference tree.
func (a *Annotator) Tree() *Tree { return a.tree }

// Annotate computes the display labels for an entry.
func (a *Annotator) Annotate(e domain.Entry) Annotation {
	return a.AnnotateLabels(domain.QueryTipLabel(e), domain.QueryNodeLabel(e))
}

// AnnotateLabels classifies every node and tip against the query labels and
// the reference sets. Labels that match nothing simply never highlight.
func (a *Annotator) AnnotateLabels(queryTip, queryNode string) Annotation {
	nodes := a.tree.NodeNames()
	tips := a.tree.Tips()
	out := Annotation{
		QueryTip:   queryTip,
		QueryNode:  queryNode,
		NodeLabels: make([]string, len(nodes)),
		NodeColors: make([]Color, len(nodes)),
		TipLabels:  make([]string, len(tips)),
		TipColors:  make([]Color, len(tips)),
	}
	for i, name := range nodes {
		switch _, ref := a.nodes[name]; {
		case name == queryNode:
			out.NodeLabels[i], out.NodeColors[i] = name, ColorHighlight
		case ref:
			out.NodeLabels[i], out.NodeColors[i] = name, ColorNeutral
		default:
			out.NodeLabels[i], out.NodeColors[i] = "", ColorBackground
		}
	}
	for i, name := range tips {
		switch _, ref := a.tips[name]; {
		case name == queryTip:
			out.TipLabels[i], out.TipColors[i] = name, ColorHighlight
		case ref:
			out.TipLabels[i], out.TipColors[i] = name, ColorMuted
		default:
			out.TipLabels[i], out.TipColors[i] = "", ColorNone
		}
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

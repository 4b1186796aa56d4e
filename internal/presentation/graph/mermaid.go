package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/reschema/pkg/domain"
	"github.com/aretw0/reschema/pkg/schema"
)

// Overlay marks schemas whose slice is currently loading or failed.
type Overlay struct {
	Loading []string
	Failed  []string
}

// OverlayFromState reads the loading bookkeeping of every schema slice in root.
func OverlayFromState(schemas []*schema.Schema, root domain.State) *Overlay {
	o := &Overlay{}
	for _, s := range schemas {
		slice, ok := s.Slice(root)
		if !ok {
			continue
		}
		if loading, _ := slice[schema.KeyIsLoading].(bool); loading {
			o.Loading = append(o.Loading, s.Name())
		}
		if v, ok := slice[schema.KeyError]; ok && v != nil {
			o.Failed = append(o.Failed, s.Name())
		}
	}
	return o
}

// GenerateMermaid renders every operation of every schema as a flowchart.
// Shapes:
// - Operation entry: ((Circle))
// - Pending: [/Parallelogram/]
// - Outcome: [Rectangle]
// Success edges are solid, failure edges dotted. The overlay highlights
// pending nodes of loading schemas and failure nodes of failed ones.
func GenerateMermaid(schemas []*schema.Schema, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	pending := map[string][]string{}
	failure := map[string][]string{}

	for _, s := range schemas {
		fmt.Fprintf(&sb, "    subgraph %s[\"%s\"]\n", sanitizeMermaidID(s.Name()), s.Name())
		for _, op := range s.Operations() {
			id := sanitizeMermaidID(s.Name() + "_" + op.Name)
			fmt.Fprintf(&sb, "        %s_idle((\"%s\"))\n", id, op.Name)

			if !op.Async {
				fmt.Fprintf(&sb, "        %s_idle -- \"%s\" --> %s_applied[\"APPLIED\"]\n", id, op.Type, id)
				continue
			}

			fmt.Fprintf(&sb, "        %s_idle -- \"%s\" --> %s_pending[/\"PENDING\"/]\n", id, op.Type, id)
			fmt.Fprintf(&sb, "        %s_pending -- \"%s\" --> %s_success[\"SUCCESS\"]\n", id, op.SuccessType, id)
			fmt.Fprintf(&sb, "        %s_pending -. \"%s\" .-> %s_failure[\"FAILURE\"]\n", id, op.FailureType, id)
			pending[s.Name()] = append(pending[s.Name()], id+"_pending")
			failure[s.Name()] = append(failure[s.Name()], id+"_failure")
		}
		sb.WriteString("    end\n")
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on both themes.
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#c62828,stroke-width:2px,color:#000;\n")
		for _, name := range overlay.Loading {
			for _, node := range pending[name] {
				fmt.Fprintf(&sb, "    class %s current;\n", node)
			}
		}
		for _, name := range overlay.Failed {
			for _, node := range failure[name] {
				fmt.Fprintf(&sb, "    class %s failed;\n", node)
			}
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

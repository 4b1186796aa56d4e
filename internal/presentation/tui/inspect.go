package tui

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/aretw0/reschema/pkg/schema"
	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"
)

// Description is the YAML form of a schema.
type Description struct {
	Name       string                 `yaml:"name"`
	Path       string                 `yaml:"path"`
	Operations []schema.OperationInfo `yaml:"operations"`
	Selectors  []string               `yaml:"selectors,omitempty"`
}

// Describe builds the YAML form of schemas.
func Describe(schemas []*schema.Schema) []Description {
	out := make([]Description, 0, len(schemas))
	for _, s := range schemas {
		out = append(out, Description{
			Name:       s.Name(),
			Path:       s.Path().String(),
			Operations: s.Operations(),
			Selectors:  selectorNames(s),
		})
	}
	return out
}

// WriteYAML encodes the description of schemas to w.
func WriteYAML(w io.Writer, schemas []*schema.Schema) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Describe(schemas)); err != nil {
		return err
	}
	return enc.Close()
}

// Markdown describes schemas as a markdown document, one section per schema.
func Markdown(schemas []*schema.Schema) string {
	var sb strings.Builder
	sb.WriteString("# Schemas\n\n")
	for _, s := range schemas {
		fmt.Fprintf(&sb, "## %s\n\n", s.Name())
		fmt.Fprintf(&sb, "Namespace: `%s`\n\n", s.Path())

		sb.WriteString("| Operation | Action | Success | Failure |\n")
		sb.WriteString("|---|---|---|---|\n")
		for _, op := range s.Operations() {
			fmt.Fprintf(&sb, "| %s | `%s` | %s | %s |\n", op.Name, op.Type, code(op.SuccessType), code(op.FailureType))
		}

		if names := selectorNames(s); len(names) > 0 {
			sb.WriteString("\nSelectors: ")
			for i, name := range names {
				if i > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(code(name))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// PrintSchemas writes a colored plain-text summary of schemas.
func PrintSchemas(w io.Writer, schemas []*schema.Schema) {
	p := termenv.ColorProfile()
	for _, s := range schemas {
		fmt.Fprintf(w, "%s %s\n", termenv.String(s.Name()).Bold().Foreground(p.Color("#a78bfa")), termenv.String(s.Path().String()).Faint())
		for _, op := range s.Operations() {
			kind := termenv.String("sync ").Foreground(p.Color("#34d399"))
			if op.Async {
				kind = termenv.String("async").Foreground(p.Color("#f472b6"))
			}
			fmt.Fprintf(w, "  %s %-24s %s\n", kind, op.Name, op.Type)
		}
		if names := selectorNames(s); len(names) > 0 {
			fmt.Fprintf(w, "  selectors: %s\n", strings.Join(names, ", "))
		}
	}
}

func selectorNames(s *schema.Schema) []string {
	names := make([]string, 0, len(s.Selectors()))
	for name := range s.Selectors() {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func code(s string) string {
	if s == "" {
		return "-"
	}
	return "`" + s + "`"
}

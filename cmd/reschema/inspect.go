package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/reschema"
	"github.com/aretw0/reschema/internal/catalog"
	"github.com/aretw0/reschema/internal/presentation/tui"
	"github.com/aretw0/reschema/pkg/compose"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List schemas with their operations, action types and selectors",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		opts := []compose.Option{compose.WithNamespace(cfg.Namespace)}
		if cfg.StrictNames {
			opts = append(opts, compose.WithStrictNames())
		}
		c, err := reschema.CombineSchemas(catalog.Schemas(catalog.WithDelay(cfg.Catalog.MovieDelay)), opts...)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
			return tui.WriteYAML(out, c.Schemas())
		}

		markdown, _ := cmd.Flags().GetBool("markdown")
		if !markdown {
			tui.PrintBanner(out, strings.TrimSpace(reschema.Version))
			tui.PrintSchemas(out, c.Schemas())
			return nil
		}

		rendered, err := tui.NewRenderer()(tui.Markdown(c.Schemas()))
		if err != nil {
			return fmt.Errorf("failed to render markdown: %w", err)
		}
		fmt.Fprint(out, rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolP("markdown", "m", false, "Render a markdown report")
	inspectCmd.Flags().Bool("yaml", false, "Print a machine-readable YAML description")
}

package main

import (
	"context"
	"fmt"

	"github.com/aretw0/reschema/internal/cli"
	"github.com/aretw0/reschema/internal/logging"
	"github.com/aretw0/reschema/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [session-id]",
	Short: "Export the operation state machines as a Mermaid diagram",
	Long: `Outputs a Mermaid diagram (graph TD) of every operation: IDLE, PENDING, SUCCESS and FAILURE.
Given a session ID, loading and failed schemas of that session are highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		engine, backend, err := cli.NewEngine(cfg, logging.NewNop())
		if err != nil {
			return err
		}
		defer backend.Close()

		var overlay *graph.Overlay
		if len(args) == 1 {
			sess, err := engine.Lookup(context.Background(), args[0])
			if err != nil {
				return err
			}
			overlay = graph.OverlayFromState(engine.Schemas(), sess.State())
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(engine.Schemas(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}

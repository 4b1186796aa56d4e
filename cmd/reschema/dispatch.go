package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/reschema/internal/cli"
	"github.com/spf13/cobra"
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch <schema> <operation> [payload]",
	Short: "Invoke an operation in a session and print the resulting state",
	Long: `Dispatches an operation and waits for async requests to settle.
The payload is parsed as JSON; anything else is sent as a string.
Sessions persist through the configured driver, so use the file or redis driver
to keep state between invocations.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		sessionID, _ := cmd.Flags().GetString("session")

		var payload any
		if len(args) == 3 {
			if err := json.Unmarshal([]byte(args[2]), &payload); err != nil {
				payload = args[2]
			}
		}

		engine, backend, err := cli.NewEngine(cfg, logger)
		if err != nil {
			return err
		}
		defer backend.Close()

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		future, err := engine.Dispatch(ctx, sessionID, args[0], args[1], payload)
		if err != nil {
			return err
		}
		result, reqErr := future.Wait(ctx)

		sess, err := engine.Open(ctx, sessionID)
		if err != nil {
			return err
		}
		state := sess.State()
		if err := engine.Close(context.Background(), sessionID); err != nil {
			return err
		}

		out := map[string]any{"session": sessionID, "result": result, "state": state}
		if reqErr != nil {
			out["error"] = reqErr.Error()
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
		if reqErr != nil {
			return fmt.Errorf("request failed: %w", reqErr)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dispatchCmd)
	dispatchCmd.Flags().StringP("session", "s", "default", "Session ID")
}

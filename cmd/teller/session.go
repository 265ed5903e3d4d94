package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aretw0/teller/pkg/domain"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persistent sessions",
	Long:  `List, inspect, remove and prune the sessions held by the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := cmd.Context()
		ids, err := app.Assistant.Sessions(ctx)
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(ids) == 0 {
			fmt.Fprintln(out, "No active sessions found.")
			return nil
		}

		sort.Strings(ids)
		fmt.Fprintln(out, "Active Sessions:")
		for _, id := range ids {
			state, err := app.Assistant.Session(ctx, id)
			if err != nil {
				fmt.Fprintf(out, "- %s (unreadable: %v)\n", id, err)
				continue
			}
			fmt.Fprintf(out, "- %s (updated %s)\n", id, humanize.Time(state.UpdatedAt))
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect the state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		sessionID := args[0]
		state, err := app.Assistant.Session(cmd.Context(), sessionID)
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", sessionID, err)
		}
		return printJSON(cmd, state)
	},
}

var sessionHistoryCmd = &cobra.Command{
	Use:   "history <session-id>",
	Short: "Print the recent turns of a session and its derived memory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		turns, mem, err := app.Assistant.History(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("error loading history: %w", err)
		}
		if turns == nil {
			turns = []domain.Turn{}
		}
		return printJSON(cmd, map[string]any{
			"session_id": args[0],
			"turns":      turns,
			"memory":     mem,
		})
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions and their history",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		out := cmd.OutOrStdout()
		var errs []error
		for _, sessionID := range args {
			if err := app.Assistant.DeleteSession(cmd.Context(), sessionID); err != nil {
				errs = append(errs, fmt.Errorf("error removing '%s': %w", sessionID, err))
				continue
			}
			fmt.Fprintf(out, "Removed session '%s'\n", sessionID)
		}
		return errors.Join(errs...)
	},
}

var sessionPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove sessions idle for longer than --older-than",
	RunE: func(cmd *cobra.Command, args []string) error {
		age, _ := cmd.Flags().GetDuration("older-than")
		if age <= 0 {
			return errors.New("--older-than must be positive")
		}

		app, _, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		removed, err := app.Assistant.Prune(cmd.Context(), age)
		if err != nil {
			return fmt.Errorf("error pruning sessions: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Pruned %s idle for more than %s.\n",
			english.Plural(len(removed), "session", ""), age)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionHistoryCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionCmd.AddCommand(sessionPruneCmd)

	sessionPruneCmd.Flags().Duration("older-than", 24*time.Hour, "Idle time after which a session is removed")
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

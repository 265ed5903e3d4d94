package main

import (
	"github.com/aretw0/teller/internal/cli"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant in the terminal",
	Long: `Starts an interactive session. Type "exit" to leave and "/history" to see
what the session has covered. Reusing --session resumes a conversation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cfg, logger, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		userID := cfg.UserID
		if cmd.Flags().Changed("user") {
			userID, _ = cmd.Flags().GetString("user")
		}
		sessionID, _ := cmd.Flags().GetString("session")
		plain, _ := cmd.Flags().GetBool("plain")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		return cli.RunChat(sigCtx, app.Assistant, cli.ChatOptions{
			UserID:    userID,
			SessionID: sessionID,
			Plain:     plain,
			In:        cmd.InOrStdin(),
			Out:       cmd.OutOrStdout(),
			Logger:    logger,
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("user", "", "Customer ID (overrides TELLER_USER_ID)")
	chatCmd.Flags().StringP("session", "s", "", "Session ID to create or resume (random when empty)")
	chatCmd.Flags().Bool("plain", false, "Disable the banner and markdown rendering")
}

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/knowyourrights/kyr/internal/chat"
	"github.com/knowyourrights/kyr/internal/render"
)

// sessionsCmd represents the sessions command
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recent conversations",
	Long: `List the most recent conversations stored by the service, newest first.

Open one with:
  kyr chat --session <id>`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cl, err := newClient()
		if err != nil {
			return err
		}
		sessions, err := cl.ListSessions(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, render.New().Sessions(sessions, ""))
		return nil
	},
}

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history <session-id>",
	Short: "Print the transcript of a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cl, err := newClient()
		if err != nil {
			return err
		}
		entries, err := cl.SessionHistory(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(os.Stdout, "No messages.")
			return nil
		}
		rnd := render.New()
		for _, m := range chat.Transcript(entries, time.Now()) {
			fmt.Fprintf(os.Stdout, "%s\n\n", rnd.Message(m))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(historyCmd)
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/mazirhxxx/listlab/internal/model"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect verification session history",
}

// -- sessions list --

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List verification sessions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		owner, _ := cmd.Flags().GetString("owner")
		limit, _ := cmd.Flags().GetInt("limit")

		sessions, err := st.ListSessions(ctx, owner, limit)
		if err != nil {
			return eris.Wrap(err, "sessions list")
		}

		if len(sessions) == 0 {
			fmt.Fprintln(os.Stderr, "No sessions found.")
			return nil
		}

		formatSessionsList(os.Stdout, sessions)
		return nil
	},
}

// -- sessions show --

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show full details of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		session, err := st.GetSession(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "sessions show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(session)
	},
}

func init() {
	sessionsListCmd.Flags().String("owner", "", "filter by owner id")
	sessionsListCmd.Flags().Int("limit", 50, "max number of sessions to display")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	rootCmd.AddCommand(sessionsCmd)
}

// formatSessionsList writes a tabular list of sessions to w.
func formatSessionsList(out io.Writer, sessions []model.CleaningSession) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tLIST\tSTATUS\tLEADS\tCREATED\tRESULT")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t-----\t-------\t------")

	for _, s := range sessions {
		result := ""
		if s.Summary != nil {
			if s.Status == model.SessionFailed {
				result = s.Summary.Error
				if len(result) > 40 {
					result = result[:37] + "..."
				}
			} else {
				result = s.Summary.StatusLine()
			}
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			truncateID(s.ID),
			s.ListID,
			s.Status,
			s.LeadCount,
			s.CreatedAt.Format("2006-01-02 15:04"),
			result,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/mazirhxxx/listlab/internal/analyze"
	"github.com/mazirhxxx/listlab/internal/model"
)

var analyzeJSON bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze <list-id>",
	Short: "Analyze a lead list for quality issues",
	Long:  "Scans every lead of a list for invalid phone/email formats, duplicates, and missing fields, and reports a 0-100 quality score.",
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

		analysis, err := analyze.New(st).Analyze(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "analyze")
		}

		if analyzeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(analysis)
		}

		formatAnalysis(os.Stdout, analysis)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "emit the full analysis as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

// formatAnalysis writes a human-readable analysis summary to w.
func formatAnalysis(out io.Writer, a *model.CleaningAnalysis) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "List:\t%s\n", a.ListID)
	_, _ = fmt.Fprintf(w, "Leads:\t%d\n", a.TotalLeads)
	_, _ = fmt.Fprintf(w, "Quality score:\t%d/100\n", a.QualityScore)
	_, _ = fmt.Fprintf(w, "Invalid phones:\t%d\n", a.InvalidPhones)
	_, _ = fmt.Fprintf(w, "Invalid emails:\t%d\n", a.InvalidEmails)
	_, _ = fmt.Fprintf(w, "Duplicate phones:\t%d\n", a.DuplicatePhones)
	_, _ = fmt.Fprintf(w, "Duplicate emails:\t%d\n", a.DuplicateEmails)
	_, _ = fmt.Fprintf(w, "Missing phones:\t%d\n", a.MissingPhones)
	_, _ = fmt.Fprintf(w, "Missing emails:\t%d\n", a.MissingEmails)
	_ = w.Flush()

	if samples := a.SamplePhoneIssues(); len(samples) > 0 {
		_, _ = fmt.Fprintln(out, "\nSample phone issues:")
		for _, issue := range samples {
			_, _ = fmt.Fprintf(out, "  %s: %q -> %q\n", issue.LeadID, issue.CurrentValue, issue.SuggestedFix)
		}
	}
	if samples := a.SampleEmailIssues(); len(samples) > 0 {
		_, _ = fmt.Fprintln(out, "\nSample email issues:")
		for _, issue := range samples {
			_, _ = fmt.Fprintf(out, "  %s: %q -> %q\n", issue.LeadID, issue.CurrentValue, issue.SuggestedFix)
		}
	}
	if groups := a.SampleDuplicateGroups(); len(groups) > 0 {
		_, _ = fmt.Fprintln(out, "\nSample duplicate groups:")
		for _, g := range groups {
			_, _ = fmt.Fprintf(out, "  %s %q: %d leads\n", g.Field, g.CanonicalValue, len(g.MemberIDs))
		}
	}
}

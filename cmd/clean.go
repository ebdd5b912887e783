package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/mazirhxxx/listlab/internal/analyze"
	"github.com/mazirhxxx/listlab/internal/clean"
)

var cleanCmd = &cobra.Command{
	Use:   "clean <list-id>",
	Short: "Apply remediation steps to a lead list",
	Long:  "Re-analyzes the list, then runs the selected cleaning steps: phone/email format fixes, duplicate removal, empty-lead removal, and name standardization.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		opts, err := cleanOptionsFromFlags(cmd)
		if err != nil {
			return err
		}

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
			return eris.Wrap(err, "clean: analyze")
		}

		progress := func(p clean.Progress) {
			fmt.Fprintf(os.Stderr, "[%s] %d/%d %s\n", p.Step, p.Completed, p.Total, p.Action)
		}

		result, err := initCleaner(st).Run(ctx, analysis, opts, progress)
		if err != nil {
			return eris.Wrap(err, "clean")
		}

		fmt.Printf("Phones fixed:        %d\n", result.PhonesFixed)
		fmt.Printf("Duplicates removed:  %d\n", result.DuplicatesRemoved)
		fmt.Printf("Emails fixed:        %d\n", result.EmailsFixed)
		fmt.Printf("Empty leads removed: %d\n", result.EmptyRemoved)
		fmt.Printf("Names standardized:  %d\n", result.NamesStandardized)
		return nil
	},
}

// cleanOptionsFromFlags maps step flags to cleaning options. --all wins;
// with no flags at all, nothing would run, so that is rejected.
func cleanOptionsFromFlags(cmd *cobra.Command) (clean.Options, error) {
	all, _ := cmd.Flags().GetBool("all")
	if all {
		return clean.All(), nil
	}

	opts := clean.Options{}
	opts.FixPhoneFormats, _ = cmd.Flags().GetBool("fix-phones")
	opts.RemoveDuplicatePhones, _ = cmd.Flags().GetBool("dedup-phones")
	opts.RemoveDuplicateEmails, _ = cmd.Flags().GetBool("dedup-emails")
	opts.FixEmailFormats, _ = cmd.Flags().GetBool("fix-emails")
	opts.RemoveEmptyLeads, _ = cmd.Flags().GetBool("remove-empty")
	opts.StandardizeNames, _ = cmd.Flags().GetBool("standardize-names")

	if opts == (clean.Options{}) {
		return opts, eris.New("no cleaning steps selected; pass step flags or --all")
	}
	return opts, nil
}

func init() {
	cleanCmd.Flags().Bool("all", false, "run every cleaning step")
	cleanCmd.Flags().Bool("fix-phones", false, "rewrite invalid phone formats")
	cleanCmd.Flags().Bool("dedup-phones", false, "remove duplicate-phone leads")
	cleanCmd.Flags().Bool("dedup-emails", false, "remove duplicate-email leads")
	cleanCmd.Flags().Bool("fix-emails", false, "rewrite fixable email formats")
	cleanCmd.Flags().Bool("remove-empty", false, "remove leads with neither phone nor email")
	cleanCmd.Flags().Bool("standardize-names", false, "rewrite placeholder names")
	rootCmd.AddCommand(cleanCmd)
}

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/mazirhxxx/listlab/internal/avatar"
	"github.com/mazirhxxx/listlab/internal/model"
	"github.com/mazirhxxx/listlab/internal/verify"
)

var (
	verifyOwner      string
	verifyDescribe   string
	verifyAvatarFile string
)

var verifyCmd = &cobra.Command{
	Use:   "verify <list-id>",
	Short: "Verify a lead list against an ideal-customer avatar",
	Long:  "Builds an avatar spec from a file or a free-text description, submits the list to the scoring webhook, and records the outcome as a session.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		spec, err := verifyAvatarSpec()
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

		sc, err := initScoring()
		if err != nil {
			return err
		}

		session, err := verify.NewOrchestrator(st, st, sc).Run(ctx, verifyOwner, args[0], spec)
		if session != nil {
			fmt.Printf("Session:  %s\n", session.ID)
			fmt.Printf("Status:   %s\n", session.Status)
			if session.Summary != nil && session.Status == model.SessionCompleted {
				fmt.Printf("Result:   %s\n", session.Summary.StatusLine())
			}
		}
		if err != nil {
			return eris.Wrap(err, "verify")
		}
		return nil
	},
}

// verifyAvatarSpec resolves the avatar from --avatar-file or --describe.
// Exactly one source must be given.
func verifyAvatarSpec() (model.AvatarSpec, error) {
	switch {
	case verifyAvatarFile != "" && verifyDescribe != "":
		return model.AvatarSpec{}, eris.New("--avatar-file and --describe are mutually exclusive")
	case verifyAvatarFile != "":
		data, err := os.ReadFile(verifyAvatarFile)
		if err != nil {
			return model.AvatarSpec{}, eris.Wrap(err, "read avatar file")
		}
		var spec model.AvatarSpec
		if err := json.Unmarshal(data, &spec); err != nil {
			return model.AvatarSpec{}, eris.Wrap(err, "parse avatar file")
		}
		return spec, nil
	case verifyDescribe != "":
		return avatar.ExtractFromText(verifyDescribe), nil
	default:
		return model.AvatarSpec{}, eris.New("an avatar is required; pass --avatar-file or --describe")
	}
}

func init() {
	verifyCmd.Flags().StringVar(&verifyOwner, "owner", "", "owner id recorded on the session")
	verifyCmd.Flags().StringVar(&verifyDescribe, "describe", "", "free-text avatar description")
	verifyCmd.Flags().StringVar(&verifyAvatarFile, "avatar-file", "", "path to an avatar spec JSON file")
	rootCmd.AddCommand(verifyCmd)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remiblancher/mkcert/internal/template"
	"github.com/remiblancher/mkcert/internal/x509util"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Template management",
	Long: `Commands for working with certificate templates.

Examples:
  # Check templates without issuing anything
  mkcert template validate ca.yaml servers.yaml`,
}

var templateValidateCmd = &cobra.Command{
	Use:   "validate [file...]",
	Short: "Parse and validate templates",
	Long: `Parse each template and validate every request it holds.

Nothing is generated and no passphrase is asked for. Each subject is
also encoded, so attributes that exceed their length limit or cannot be
represented are reported here rather than at issuance.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTemplateValidate,
}

func init() {
	templateCmd.AddCommand(templateValidateCmd)
}

func runTemplateValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, path := range args {
		reqs, err := template.LoadFile(path)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%s: %d request(s)\n", path, len(reqs))
		for i, req := range reqs {
			name, err := x509util.BuildName(req.Subject())
			if err != nil {
				return fmt.Errorf("%s: request %d: %w", path, i, err)
			}
			if req.SelfSigned {
				fmt.Fprintf(out, "  self-signed  %s (RSA-%d, %d days)\n",
					name, req.KeySizeBits, req.ValidityDays(appConfig.DefaultValidityDays))
			} else {
				fmt.Fprintf(out, "  csr          %s (RSA-%d)\n", name, req.KeySizeBits)
			}
		}
	}
	return nil
}

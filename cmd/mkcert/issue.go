package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/remiblancher/mkcert/internal/audit"
	"github.com/remiblancher/mkcert/internal/batch"
	"github.com/remiblancher/mkcert/internal/crypto"
	"github.com/remiblancher/mkcert/internal/template"
)

var (
	issueTemplateFiles []string
	issueBundleFiles   []string
	issueOutDir        string
)

func initIssueFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringArrayVarP(&issueTemplateFiles, "file", "f", nil, "YAML template of certificates to issue (repeatable)")
	flags.StringArrayVarP(&issueBundleFiles, "bundle", "b", nil, "Encrypted .key file to bundle with its sibling .crt (repeatable)")
	flags.StringVarP(&issueOutDir, "out-dir", "o", "", "Output directory for keys, certificates and CSRs (or set MKCERT_OUT_DIR)")
}

func runIssue(cmd *cobra.Command, args []string) error {
	if len(issueTemplateFiles) == 0 && len(issueBundleFiles) == 0 {
		return errors.New("nothing to do: pass at least one --file or --bundle")
	}

	// Every request is parsed and validated before anything is prompted.
	certs, err := template.LoadFiles(issueTemplateFiles...)
	if err != nil {
		return err
	}
	bundles, err := template.NewBundleRequests(issueBundleFiles...)
	if err != nil {
		return err
	}

	outDir := appConfig.OutDir
	if issueOutDir != "" {
		outDir = issueOutDir
	}
	if len(certs) > 0 {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	processor, err := batch.NewProcessor(batch.Config{
		Source:              newPassphraseSource(),
		OutDir:              outDir,
		DefaultValidityDays: appConfig.DefaultValidityDays,
		CSRSubjectAltName:   appConfig.CSRSubjectAltName,
		KeyFile:             crypto.KeyFileOptions{Iterations: appConfig.KeyKDFIterations},
		P12Iterations:       appConfig.P12KDFIterations,
		Out:                 cmd.OutOrStdout(),
		Verbose:             verbose,
		Logger:              &logger,
		Audit:               audit.Default(),
	})
	if err != nil {
		return err
	}

	logger.Debug().
		Strs("templates", issueTemplateFiles).
		Strs("bundles", issueBundleFiles).
		Str("out_dir", outDir).
		Msg("processing requests")

	return processor.Run(cmd.Context(), certs, bundles)
}

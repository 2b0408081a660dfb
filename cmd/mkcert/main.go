// Command mkcert issues encrypted RSA keys, self-signed CA certificates,
// certificate signing requests and PKCS#12 bundles from YAML templates.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/remiblancher/mkcert/internal/audit"
	"github.com/remiblancher/mkcert/internal/config"
	"github.com/remiblancher/mkcert/internal/passphrase"
)

// Build-time variables (injected by GoReleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags
var (
	configPath   string
	auditLogPath string
	verbose      bool
)

// Resolved by the root PersistentPreRunE.
var (
	appConfig *config.Config
	logger    = zerolog.Nop()
)

// newPassphraseSource returns the source of every passphrase prompt.
// Tests replace it with a scripted source.
var newPassphraseSource = func() passphrase.Source {
	return passphrase.TTY()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		_ = audit.Close()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mkcert",
	Short: "mkcert - a local certificate authority utility",
	Long: `mkcert issues RSA key pairs, self-signed CA certificates and certificate
signing requests from YAML templates, and packages existing key and
certificate pairs into password-protected PKCS#12 archives.

Private keys are always written encrypted (PKCS#8, AES-256-CBC). Passphrases
are read from the controlling terminal. Existing files are never overwritten.

Template format:
  - common_name: ca.example.test
    organization: Example
    locality: Paris
    state: Ile-de-France
    country: FR
    key_size_bits: 2048
    self_signed: true
    days_until_expiration: 365

Examples:
  # Issue everything described in a template
  mkcert --file ca.yaml

  # Issue into a directory
  mkcert --file ca.yaml --out-dir ./pki

  # Bundle an existing key with its sibling .crt into ca.example.test.p12
  mkcert --bundle ca.example.test.key`,
	Version:       version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		appConfig = cfg

		logger = newLogger(cmd.ErrOrStderr(), verbose)

		// Flag, then $MKCERT_AUDIT_LOG or the config file
		if auditLogPath == "" {
			auditLogPath = cfg.AuditLog
		}
		if auditLogPath != "" {
			if err := audit.InitFile(auditLogPath); err != nil {
				return fmt.Errorf("failed to initialize audit log: %w", err)
			}
			logger.Debug().Str("path", auditLogPath).Msg("audit log enabled")
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return audit.Close()
	},
	RunE: runIssue,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("mkcert {{.Version}} (commit: %s, built: %s)\n", commit, date))

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to configuration file (or set "+config.EnvConfig+" env var)")
	rootCmd.PersistentFlags().StringVar(&auditLogPath, "audit-log", "",
		"Path to audit log file (or set "+config.EnvAuditLog+" env var)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Debug logging and a description of every issued certificate")

	initIssueFlags(rootCmd)

	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(auditCmd)
}

// newLogger returns the diagnostic logger: human-readable on w, debug
// level when verbose.
func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

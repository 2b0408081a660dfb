package main

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/remiblancher/mkcert/internal/bundle"
	"github.com/remiblancher/mkcert/internal/crypto"
	"github.com/remiblancher/mkcert/internal/passphrase"
	"github.com/remiblancher/mkcert/internal/x509util"
)

var showCmd = &cobra.Command{
	Use:   "show [file]",
	Short: "Display a certificate, CSR, key or PKCS#12 archive",
	Long: `Display the contents of a file written by mkcert.

The file type is detected from its content:
  - Certificates (.crt)
  - Certificate Signing Requests (.csr)
  - Encrypted private keys (.key)
  - PKCS#12 archives (.p12), after prompting for the passphrase

Examples:
  mkcert show ca.example.test.crt
  mkcert show ca.example.test.p12`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	out := cmd.OutOrStdout()
	block, _ := pem.Decode(data)
	if block == nil {
		// Not PEM: mkcert only writes PKCS#12 archives as DER.
		if !strings.EqualFold(filepath.Ext(path), ".p12") {
			return fmt.Errorf("%s: unrecognized file format", path)
		}
		return showArchive(out, path, data)
	}

	switch block.Type {
	case x509util.PEMTypeCertificate:
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("%s: failed to parse certificate: %w", path, err)
		}
		return x509util.DescribeCertificate(out, cert)

	case x509util.PEMTypeCertificateRequest:
		csr, err := x509.ParseCertificateRequest(block.Bytes)
		if err != nil {
			return fmt.Errorf("%s: failed to parse CSR: %w", path, err)
		}
		return x509util.DescribeCSR(out, csr)

	case crypto.PEMTypeEncryptedPrivateKey:
		fmt.Fprintf(out, "Private Key:\n")
		fmt.Fprintf(out, "  Format:         PKCS#8, encrypted (%d bytes)\n", len(block.Bytes))
		return nil

	default:
		return fmt.Errorf("%s: unsupported PEM type %q", path, block.Type)
	}
}

func showArchive(out io.Writer, path string, data []byte) error {
	secret, err := newPassphraseSource().CollectExisting(passphrase.PromptExisting)
	if err != nil {
		return err
	}
	defer secret.Wipe()

	contents, err := bundle.NewBundler(appConfig.P12KDFIterations).Verify(data, secret.Bytes())
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fmt.Fprintf(out, "PKCS#12 Archive: %s\n", filepath.Base(path))
	if contents.FriendlyName != "" {
		fmt.Fprintf(out, "  Friendly Name:  %s\n", contents.FriendlyName)
	}
	if key, ok := contents.Key.(*rsa.PrivateKey); ok {
		fmt.Fprintf(out, "  Private Key:    RSA %d bits (matches certificate)\n", key.N.BitLen())
	}
	fmt.Fprintf(out, "  CA Certificates: %d\n", len(contents.CACerts))
	return x509util.DescribeCertificate(out, contents.Certificate)
}

// Package batch runs the requests of one invocation: bundles first, then
// certificates, stopping at the first failure.
package batch

import (
	"context"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/remiblancher/mkcert/internal/audit"
	"github.com/remiblancher/mkcert/internal/bundle"
	"github.com/remiblancher/mkcert/internal/crypto"
	"github.com/remiblancher/mkcert/internal/passphrase"
	"github.com/remiblancher/mkcert/internal/template"
	"github.com/remiblancher/mkcert/internal/x509util"
)

// Output file extensions.
const (
	extKey         = ".key"
	extCertificate = ".crt"
	extCSR         = ".csr"
)

// Config configures a Processor. Source is required; every other field
// has a usable zero value.
type Config struct {
	// Source supplies passphrases.
	Source passphrase.Source

	// Sink receives output files. Defaults to FileSink.
	Sink Sink

	// OutDir receives key, certificate and CSR files. Defaults to ".".
	OutDir string

	// DefaultValidityDays applies when a request has no expiration.
	// Defaults to 366.
	DefaultValidityDays uint

	// CSRSubjectAltName requests a SAN holding the common name in CSRs.
	CSRSubjectAltName bool

	// KeyFile controls key file encryption.
	KeyFile crypto.KeyFileOptions

	// P12Iterations is the PKCS#12 KDF iteration count.
	P12Iterations int

	// Out receives progress lines. Defaults to io.Discard.
	Out io.Writer

	// Verbose also describes every issued certificate and CSR on Out.
	Verbose bool

	// Logger receives diagnostic records. Defaults to a no-op logger.
	Logger *zerolog.Logger

	// Audit receives audit events. Defaults to audit.NopWriter.
	Audit audit.Writer
}

// Processor executes certificate and bundle requests.
type Processor struct {
	cfg     Config
	sink    Sink
	out     io.Writer
	log     zerolog.Logger
	bundler *bundle.Bundler
	audit   audit.Writer
}

// NewProcessor creates a Processor from cfg.
func NewProcessor(cfg Config) (*Processor, error) {
	if cfg.Source == nil {
		return nil, errors.New("batch: passphrase source is required")
	}
	if cfg.OutDir == "" {
		cfg.OutDir = "."
	}
	if cfg.DefaultValidityDays == 0 {
		cfg.DefaultValidityDays = 366
	}

	p := &Processor{
		cfg:     cfg,
		sink:    cfg.Sink,
		out:     cfg.Out,
		log:     zerolog.Nop(),
		bundler: bundle.NewBundler(cfg.P12Iterations),
		audit:   cfg.Audit,
	}
	if p.sink == nil {
		p.sink = FileSink{}
	}
	if p.out == nil {
		p.out = io.Discard
	}
	if cfg.Logger != nil {
		p.log = *cfg.Logger
	}
	if p.audit == nil {
		p.audit = audit.NopWriter{}
	}
	return p, nil
}

// Run processes bundles, then certificates, in order. The first failure
// aborts the run and is returned as a *RequestError. Files written by
// earlier requests are left in place.
func (p *Processor) Run(ctx context.Context, certs []template.CertificateRequest, bundles []template.BundleRequest) error {
	rec := audit.NewRecorder(p.audit)
	log := p.log.With().Str("run_id", rec.RunID()).Logger()
	log.Debug().Int("bundles", len(bundles)).Int("certificates", len(certs)).Msg("starting run")

	for _, req := range bundles {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.processBundle(req, rec, log); err != nil {
			return err
		}
	}

	for _, req := range certs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.processCertificate(req, rec, log); err != nil {
			return err
		}
	}

	log.Debug().Msg("run complete")
	return nil
}

func (p *Processor) processCertificate(req template.CertificateRequest, rec *audit.Recorder, log zerolog.Logger) error {
	cn := req.CommonName
	fail := func(path string, err error) error {
		return &RequestError{Kind: KindCertificate, Name: cn, Path: path, Err: err}
	}

	fmt.Fprintf(p.out, "New certificate: '%s'\n", cn)

	if err := checkFileStem(cn); err != nil {
		return fail("", err)
	}
	keyPath := filepath.Join(p.cfg.OutDir, cn+extKey)
	outPath := filepath.Join(p.cfg.OutDir, cn+extCSR)
	if req.SelfSigned {
		outPath = filepath.Join(p.cfg.OutDir, cn+extCertificate)
	}
	log = log.With().Str("common_name", cn).Logger()

	// Nothing is written unless every target is free and the subject
	// can be encoded.
	for _, path := range []string{keyPath, outPath} {
		if err := p.ensureAbsent(path); err != nil {
			return fail(path, err)
		}
	}
	if err := precheck(req, req.SelfSigned || p.cfg.CSRSubjectAltName); err != nil {
		return fail("", err)
	}

	secret, err := p.cfg.Source.CollectNew(passphrase.PromptNew)
	if err != nil {
		if aerr := rec.PassphraseFailed(keyPath, err.Error()); aerr != nil {
			return fail(keyPath, aerr)
		}
		return fail(keyPath, err)
	}

	kp, err := crypto.GenerateRSAKeyPair(int(req.KeySizeBits))
	if err != nil {
		secret.Wipe()
		return fail("", err)
	}
	log.Debug().Int("bits", kp.Bits).Msg("key pair generated")

	keyPEM, err := crypto.EncryptPrivateKeyPEM(kp.PrivateKey, secret.Bytes(), p.cfg.KeyFile)
	secret.Wipe()
	if err != nil {
		return fail(keyPath, err)
	}
	if err := p.sink.Create(keyPath, keyPEM, ModeSecret); err != nil {
		return fail(keyPath, err)
	}
	if err := rec.KeyGenerated(keyPath, kp.Bits); err != nil {
		return fail(keyPath, err)
	}
	log.Debug().Str("path", keyPath).Msg("encrypted key written")

	if req.SelfSigned {
		err = p.issueCertificate(req, kp, outPath, rec, log)
	} else {
		err = p.issueCSR(req, kp, outPath, rec, log)
	}
	if err != nil {
		return fail(outPath, err)
	}
	return nil
}

func (p *Processor) issueCertificate(req template.CertificateRequest, kp *crypto.KeyPair, path string, rec *audit.Recorder, log zerolog.Logger) error {
	days := req.ValidityDays(p.cfg.DefaultValidityDays)
	issued, err := x509util.IssueSelfSigned(x509util.IssueRequest{
		Subject:      req.Subject(),
		Key:          kp.Signer(),
		ValidityDays: days,
	})
	if err != nil {
		return err
	}
	if err := p.sink.Create(path, issued.PEM(), ModePublic); err != nil {
		return err
	}

	serial := hex.EncodeToString(issued.Certificate.SerialNumber.Bytes())
	subject := subjectString(issued.Certificate.RawSubject)
	if err := rec.CertIssued(path, serial, subject, days); err != nil {
		return err
	}
	log.Info().Str("path", path).Str("serial", serial).Uint("validity_days", days).Msg("certificate issued")

	if p.cfg.Verbose {
		return x509util.DescribeCertificate(p.out, issued.Certificate)
	}
	return nil
}

func (p *Processor) issueCSR(req template.CertificateRequest, kp *crypto.KeyPair, path string, rec *audit.Recorder, log zerolog.Logger) error {
	issued, err := x509util.CreateCSR(x509util.CSRRequest{
		Subject:        req.Subject(),
		Key:            kp.Signer(),
		SubjectAltName: p.cfg.CSRSubjectAltName,
	})
	if err != nil {
		return err
	}
	if err := p.sink.Create(path, issued.PEM(), ModePublic); err != nil {
		return err
	}

	subject := subjectString(issued.Request.RawSubject)
	if err := rec.CSRCreated(path, subject); err != nil {
		return err
	}
	log.Info().Str("path", path).Msg("CSR created")

	if p.cfg.Verbose {
		return x509util.DescribeCSR(p.out, issued.Request)
	}
	return nil
}

func (p *Processor) processBundle(req template.BundleRequest, rec *audit.Recorder, log zerolog.Logger) error {
	name := req.FriendlyName()
	fail := func(path string, err error) error {
		return &RequestError{Kind: KindBundle, Name: name, Path: path, Err: err}
	}

	fmt.Fprintf(p.out, "Bundle: %s\n", name)
	log = log.With().Str("friendly_name", name).Logger()

	certPath := req.CertificateFile()
	archivePath := req.ArchiveFile()

	exists, err := p.sink.Exists(certPath)
	if err != nil {
		return fail(certPath, err)
	}
	if !exists {
		return fail(certPath, ErrMissingCertificate)
	}
	if err := p.ensureAbsent(archivePath); err != nil {
		return fail(archivePath, err)
	}

	keyPEM, err := p.sink.Read(req.PrivateKeyFile)
	if err != nil {
		return fail(req.PrivateKeyFile, err)
	}
	cert, err := p.readCertificate(certPath)
	if err != nil {
		return fail(certPath, err)
	}

	secret, err := p.cfg.Source.CollectExisting(passphrase.PromptExisting)
	if err != nil {
		return fail(req.PrivateKeyFile, err)
	}
	defer secret.Wipe()

	key, err := crypto.DecryptPrivateKeyPEM(keyPEM, secret.Bytes())
	if err != nil {
		if aerr := rec.PassphraseFailed(req.PrivateKeyFile, "decryption failed"); aerr != nil {
			return fail(req.PrivateKeyFile, aerr)
		}
		return fail(req.PrivateKeyFile, err)
	}

	archive, err := p.bundler.Bundle(bundle.Input{
		FriendlyName: name,
		Key:          key,
		Certificate:  cert,
		Passphrase:   secret.Bytes(),
	})
	if err != nil {
		return fail(archivePath, err)
	}
	if err := p.sink.Create(archivePath, archive, ModeSecret); err != nil {
		return fail(archivePath, err)
	}

	serial := hex.EncodeToString(cert.SerialNumber.Bytes())
	if err := rec.BundleCreated(archivePath, name, serial); err != nil {
		return fail(archivePath, err)
	}
	log.Info().Str("path", archivePath).Msg("PKCS#12 archive created")
	return nil
}

func (p *Processor) ensureAbsent(path string) error {
	exists, err := p.sink.Exists(path)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: '%s'", ErrFileExists, path)
	}
	return nil
}

func (p *Processor) readCertificate(path string) (*x509.Certificate, error) {
	data, err := p.sink.Read(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil || block.Type != x509util.PEMTypeCertificate {
		return nil, fmt.Errorf("%w: no CERTIFICATE block", bundle.ErrBundle)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bundle.ErrBundle, err)
	}
	return cert, nil
}

// checkFileStem rejects common names that cannot name a file in OutDir.
func checkFileStem(cn string) error {
	if cn == "" || cn == "." || cn == ".." || strings.ContainsAny(cn, `/\`) || filepath.Base(cn) != cn {
		return &template.ValidationError{
			Index:   -1,
			Field:   "common_name",
			Message: fmt.Sprintf("'%s' cannot be used as a file name", cn),
		}
	}
	return nil
}

// precheck runs the key size, name and SAN checks that issuance would
// run, so an unusable request fails before anything is prompted or written.
func precheck(req template.CertificateRequest, withSAN bool) error {
	if req.KeySizeBits < crypto.MinRSAKeySize || req.KeySizeBits > crypto.MaxRSAKeySize {
		return fmt.Errorf("%w: RSA key size %d is outside [%d, %d]",
			crypto.ErrKeyGeneration, req.KeySizeBits, crypto.MinRSAKeySize, crypto.MaxRSAKeySize)
	}
	if _, err := x509util.BuildName(req.Subject()); err != nil {
		return err
	}
	if withSAN {
		if _, err := x509util.NormalizeDNSName(req.CommonName); err != nil {
			return err
		}
	}
	return nil
}

func subjectString(raw []byte) string {
	name, err := x509util.ParseName(raw)
	if err != nil {
		return ""
	}
	return name.String()
}

// Package certs makes sure a TLS certificate/key pair is present on disk,
// generating a self-signed one when it is not.
package certs

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/flashbots/devhttps/logutils"
	"go.uber.org/zap"
)

// Pair names the certificate and private key files.
type Pair struct {
	CertFile string
	KeyFile  string
}

// DefaultPair is the pair used when nothing else is configured.
var DefaultPair = Pair{CertFile: "cert.pem", KeyFile: "key.pem"}

// Generator writes a fresh self-signed pair to disk.
type Generator interface {
	Generate(ctx context.Context, pair Pair) error
}

// Exists reports whether both files of the pair are present.
func (p Pair) Exists() (bool, error) {
	for _, name := range []string{p.CertFile, p.KeyFile} {
		_, err := os.Stat(name)
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
	}
	return true, nil
}

// Load parses the pair and checks that the key matches the certificate.
func (p Pair) Load() (tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(p.CertFile, p.KeyFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("load key pair %s/%s: %w", p.CertFile, p.KeyFile, err)
	}
	return cert, nil
}

// Ensure generates the pair with gen unless both files already exist.
// It reports whether generation took place. Progress is logged at debug level
// through the logger carried by ctx.
func Ensure(ctx context.Context, pair Pair, gen Generator) (bool, error) {
	log := logutils.ZapFromContext(ctx)

	ok, err := pair.Exists()
	if err != nil {
		return false, fmt.Errorf("check %s/%s: %w", pair.CertFile, pair.KeyFile, err)
	}
	if ok {
		log.Debug("Using existing certificate", zap.String("cert", pair.CertFile), zap.String("key", pair.KeyFile))
		return false, nil
	}

	log.Debug("Generating self-signed certificate for localhost")
	if err := gen.Generate(ctx, pair); err != nil {
		return false, err
	}
	log.Debug("Certificate generated", zap.String("cert", pair.CertFile), zap.String("key", pair.KeyFile))
	return true, nil
}

// NewGenerator picks a generator by name: "openssl" shells out to the tool
// at opensslPath, "native" generates in-process.
func NewGenerator(name, opensslPath string) (Generator, error) {
	switch name {
	case GeneratorOpenSSL:
		return &OpenSSL{Path: opensslPath}, nil
	case GeneratorNative:
		return &Native{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGenerator, name)
	}
}

const (
	GeneratorOpenSSL = "openssl"
	GeneratorNative  = "native"
)

var ErrUnknownGenerator = errors.New("unknown certificate generator")

// Package config collects the settings of the devhttps server from the
// command line, the environment and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/flashbots/devhttps/certs"
	"github.com/flashbots/devhttps/envflag"
	"github.com/flashbots/devhttps/logutils"
	"github.com/joho/godotenv"
)

const (
	DefaultListenAddr      = "localhost:4443"
	DefaultRoot            = "."
	DefaultShutdownTimeout = 5 * time.Second
)

// Config holds every setting of the server. The zero-flag invocation yields
// DefaultListenAddr, cert.pem/key.pem and the openssl generator.
type Config struct {
	ListenAddr      string
	Certs           certs.Pair
	Root            string
	Generator       string
	OpenSSLPath     string
	MetricsAddr     string
	ShutdownTimeout time.Duration
	LogLevel        string
	LogDev          bool
}

// Load reads the .env file from envFile (ignored when absent) and parses
// args. Output of -h goes to usage.
func Load(name string, args []string, envFile string, usage io.Writer) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(usage)

	var (
		cfg  = &Config{}
		errs []error
	)

	listenAddr := envflag.String(flags, "listen-addr", DefaultListenAddr, "address to serve HTTPS on")
	certFile := envflag.String(flags, "cert-file", certs.DefaultPair.CertFile, "TLS certificate `file`")
	keyFile := envflag.String(flags, "key-file", certs.DefaultPair.KeyFile, "TLS private key `file`")
	root := envflag.String(flags, "root", DefaultRoot, "`directory` to serve")
	generator := envflag.String(flags, "generator", certs.GeneratorOpenSSL,
		fmt.Sprintf("certificate generator, %q or %q", certs.GeneratorOpenSSL, certs.GeneratorNative))
	opensslPath := envflag.String(flags, "openssl", "openssl", "name or `path` of the openssl binary")
	metricsAddr := envflag.String(flags, "metrics-addr", "", "address to serve plain-HTTP /metrics on (disabled when empty)")
	logLevel := envflag.String(flags, "log-level", "info",
		"log level, one of: "+strings.Join(logutils.Levels, ", "))

	logDev, err := envflag.Bool(flags, "log-dev", true, "human-readable console logs")
	errs = append(errs, err)
	shutdownTimeout, err := envflag.Duration(flags, "shutdown-timeout", DefaultShutdownTimeout, "grace period for in-flight requests on exit")
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(flags.Args(), " "))
	}

	cfg.ListenAddr = *listenAddr
	cfg.Certs = certs.Pair{CertFile: *certFile, KeyFile: *keyFile}
	cfg.Root = *root
	cfg.Generator = *generator
	cfg.OpenSSLPath = *opensslPath
	cfg.MetricsAddr = *metricsAddr
	cfg.ShutdownTimeout = *shutdownTimeout
	cfg.LogLevel = *logLevel
	cfg.LogDev = *logDev

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail late.
func (c *Config) Validate() error {
	var errs []error
	if c.ListenAddr == "" {
		errs = append(errs, errors.New("listen address must not be empty"))
	}
	if c.Certs.CertFile == "" || c.Certs.KeyFile == "" {
		errs = append(errs, errors.New("certificate and key paths must not be empty"))
	}
	if c.Generator != certs.GeneratorOpenSSL && c.Generator != certs.GeneratorNative {
		errs = append(errs, fmt.Errorf("%w: %q", certs.ErrUnknownGenerator, c.Generator))
	}
	if !logutils.ValidLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("unknown log level %q, valid levels are: %s", c.LogLevel, strings.Join(logutils.Levels, ", ")))
	}
	if c.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("shutdown timeout must not be negative"))
	}
	if info, err := os.Stat(c.Root); err != nil {
		errs = append(errs, fmt.Errorf("root: %w", err))
	} else if !info.IsDir() {
		errs = append(errs, fmt.Errorf("root %s is not a directory", c.Root))
	}
	return errors.Join(errs...)
}

// devhttps serves the current directory over HTTPS for local development,
// generating a self-signed certificate for localhost on first run.
//
//	devhttps                      # https://localhost:4443, cert.pem/key.pem
//	devhttps -generator native    # no openssl required
//	devhttps -h                   # all flags and their env variables
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/flashbots/devhttps/certs"
	"github.com/flashbots/devhttps/cli"
	"github.com/flashbots/devhttps/config"
	"github.com/flashbots/devhttps/logutils"
	"github.com/flashbots/devhttps/server"
	"go.uber.org/zap"
)

const envFile = ".env"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	releaseOnDone(ctx, stop)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// releaseOnDone calls stop as soon as ctx is done, so that a second Ctrl+C
// during the graceful shutdown kills the process the default way.
func releaseOnDone(ctx context.Context, stop context.CancelFunc) {
	go func() {
		<-ctx.Done()
		stop()
	}()
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load("devhttps", args, envFile, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return cli.ExitOK
	}
	if err != nil {
		return cli.Fail(stderr, "Invalid configuration: %v", err)
	}

	log := logutils.GetZapLogger(
		logutils.LogDevMode(cfg.LogDev),
		logutils.LogLevel(cfg.LogLevel),
		logutils.LogOutput(stderr),
	)
	defer logutils.FlushZap(log)
	defer zap.ReplaceGlobals(log)()
	ctx = logutils.ContextWithZap(ctx, log)

	gen, err := certs.NewGenerator(cfg.Generator, cfg.OpenSSLPath)
	if err != nil {
		return cli.Fail(stderr, "%v", err)
	}

	generated, err := certs.Ensure(ctx, cfg.Certs, gen)
	var toolErr *certs.ToolError
	switch {
	case errors.Is(err, certs.ErrToolNotFound):
		return cli.Fail(stderr, "Error: %s not found. Please install OpenSSL.", cfg.OpenSSLPath)
	case errors.As(err, &toolErr) && toolErr.Stderr != "":
		return cli.Fail(stderr, "Failed to generate certificate: %s", toolErr.Stderr)
	case err != nil:
		return cli.Fail(stderr, "Failed to generate certificate: %v", err)
	}
	if generated {
		fmt.Fprintf(stdout, "✓ Certificate generated: %s and %s\n", cfg.Certs.CertFile, cfg.Certs.KeyFile)
	} else {
		fmt.Fprintf(stdout, "Using existing certificate: %s\n", cfg.Certs.CertFile)
	}

	cert, err := cfg.Certs.Load()
	if err != nil {
		return cli.Fail(stderr, "Invalid certificate: %v", err)
	}

	srv, err := server.New(server.Opts{
		ListenAddr:      cfg.ListenAddr,
		MetricsAddr:     cfg.MetricsAddr,
		Root:            cfg.Root,
		Certificate:     cert,
		ShutdownTimeout: cfg.ShutdownTimeout,
	})
	if err != nil {
		return cli.Fail(stderr, "%v", err)
	}
	if err := srv.Listen(); err != nil {
		return cli.Fail(stderr, "%v", err)
	}

	fmt.Fprintf(stdout, "\n🔒 Serving HTTPS on %s\n", serveURL(cfg.ListenAddr, srv.Addr()))
	fmt.Fprint(stdout, "   Press Ctrl+C to stop\n\n")
	fmt.Fprint(stdout, "Note: Your browser will warn about the self-signed certificate.\n")
	fmt.Fprint(stdout, "      Click 'Advanced' and proceed to localhost.\n\n")

	if err := srv.Run(ctx); err != nil {
		log.Error("Server failed", zap.Error(err))
		return cli.Fail(stderr, "Server failed: %v", err)
	}

	fmt.Fprint(stdout, "\n\nServer stopped.\n")
	return cli.ExitOK
}

// serveURL keeps the configured host name, which is what the certificate is
// issued for, and takes the port from the bound socket.
func serveURL(configured string, bound net.Addr) string {
	host, _, err := net.SplitHostPort(configured)
	if err != nil || host == "" {
		host = "localhost"
	}
	port := ""
	if tcp, ok := bound.(*net.TCPAddr); ok {
		port = strconv.Itoa(tcp.Port)
	}
	return "https://" + net.JoinHostPort(host, port)
}

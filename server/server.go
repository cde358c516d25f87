// Package server serves a directory over HTTPS with the stock static-file
// handler, plus an optional plain-HTTP Prometheus endpoint.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/flashbots/devhttps/httplogger"
	"github.com/flashbots/devhttps/logutils"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/sync/errgroup"
)

const defaultShutdownTimeout = 5 * time.Second

// Opts configures a Server.
type Opts struct {
	// ListenAddr is where HTTPS is served, e.g. "localhost:4443".
	ListenAddr string
	// MetricsAddr enables a plain-HTTP /metrics listener when non-empty.
	MetricsAddr string
	// Root is the directory being served.
	Root string
	// Certificate is the loaded key pair presented to clients.
	Certificate tls.Certificate
	// ShutdownTimeout bounds the graceful shutdown, 5s when zero. Connections
	// still open after it are closed forcibly.
	ShutdownTimeout time.Duration
}

type Server struct {
	opts Opts
	log  *zap.Logger

	srv        *http.Server
	metricsSrv *http.Server

	ln        net.Listener
	metricsLn net.Listener
}

// New builds the HTTPS server. Nothing is bound until Listen or Run.
func New(opts Opts) (*Server, error) {
	if opts.ListenAddr == "" {
		return nil, errors.New("listen address is required")
	}
	if len(opts.Certificate.Certificate) == 0 {
		return nil, errors.New("certificate is required")
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}

	srv := &http.Server{
		Addr:              opts.ListenAddr,
		Handler:           httplogger.LoggingMiddleware(http.FileServer(http.Dir(opts.Root))),
		ReadHeaderTimeout: 10 * time.Second,
		TLSConfig: &tls.Config{
			Certificates: []tls.Certificate{opts.Certificate},
			MinVersion:   tls.VersionTLS12,
		},
	}
	if err := http2.ConfigureServer(srv, &http2.Server{}); err != nil {
		return nil, fmt.Errorf("configure http2: %w", err)
	}

	s := &Server{
		opts: opts,
		log:  zap.NewNop(),
		srv:  srv,
	}

	if opts.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
			metrics.WritePrometheus(w, true)
		})
		s.metricsSrv = &http.Server{
			Addr:              opts.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}
	return s, nil
}

// Listen binds the sockets without serving yet.
func (s *Server) Listen() error {
	if s.ln != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.opts.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.ListenAddr, err)
	}

	if s.metricsSrv != nil {
		metricsLn, err := net.Listen("tcp", s.opts.MetricsAddr)
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("listen %s: %w", s.opts.MetricsAddr, err)
		}
		s.metricsLn = metricsLn
	}
	s.ln = ln
	return nil
}

// Addr is the bound HTTPS address, nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// MetricsAddr is the bound metrics address, nil when metrics are disabled.
func (s *Server) MetricsAddr() net.Addr {
	if s.metricsLn == nil {
		return nil
	}
	return s.metricsLn.Addr()
}

// Run serves until ctx is cancelled, then shuts down gracefully. Reaching
// the shutdown timeout is not an error: the remaining connections are closed
// and Run returns nil.
//
// The logger carried by ctx (see logutils.ContextWithZap) is used for the
// server and becomes the base logger of every request.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	s.log = logutils.ZapFromContext(ctx)
	s.srv.ErrorLog = zap.NewStdLog(s.log.Named("http"))
	baseCtx := logutils.ContextWithZap(context.WithoutCancel(ctx), s.log)
	s.srv.BaseContext = func(net.Listener) context.Context { return baseCtx }

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("Starting HTTPS server", zap.String("addr", s.ln.Addr().String()), zap.String("root", s.opts.Root))
		if err := s.srv.ServeTLS(s.ln, "", ""); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve https: %w", err)
		}
		return nil
	})

	if s.metricsSrv != nil {
		g.Go(func() error {
			s.log.Info("Starting metrics server", zap.String("addr", s.metricsLn.Addr().String()))
			if err := s.metricsSrv.Serve(s.metricsLn); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve metrics: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return s.shutdown()
	})

	return g.Wait()
}

func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	s.log.Info("Shutting down", zap.Duration("timeout", s.opts.ShutdownTimeout))
	err := s.srv.Shutdown(ctx)
	if s.metricsSrv != nil {
		err = errors.Join(err, s.metricsSrv.Shutdown(ctx))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		s.log.Warn("Graceful shutdown timed out, closing remaining connections",
			zap.Duration("timeout", s.opts.ShutdownTimeout))
		s.close()
		return nil
	}
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) close() {
	if err := s.srv.Close(); err != nil {
		s.log.Warn("Failed to close HTTPS server", zap.Error(err))
	}
	if s.metricsSrv != nil {
		if err := s.metricsSrv.Close(); err != nil {
			s.log.Warn("Failed to close metrics server", zap.Error(err))
		}
	}
}

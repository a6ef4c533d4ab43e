package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/acme/autocert"
)

const (
	DefaultPort    = "8080"
	DefaultTLSMode = TLSModeManual

	TLSModeManual   = "manual"
	TLSModeAutoCert = "autocert"

	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

type ServerTLSAutoCert struct {
	CacheDir string
	Domains  []string
	Email    string
}

type ServerTLS struct {
	Enabled  bool
	Mode     string
	AutoCert *ServerTLSAutoCert
	CertFile string
	KeyFile  string
}

type Server struct {
	Host string
	Port string
	TLS  ServerTLS
}

func (srv *Server) Run(ctx context.Context, handler http.Handler) error {
	addr := net.JoinHostPort(srv.Host, srv.Port)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.listenAndServe(ctx, httpServer)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}

		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}

func (srv *Server) listenAndServe(ctx context.Context, httpServer *http.Server) error {
	if !srv.TLS.Enabled {
		slog.InfoContext(ctx, "listening", "address", "http://"+httpServer.Addr)

		return httpServer.ListenAndServe()
	}

	switch srv.TLS.Mode {
	case TLSModeAutoCert:
		return srv.listenAndServeAutoCert(ctx, httpServer)
	case TLSModeManual:
		slog.InfoContext(ctx, "listening", "address", "https://"+httpServer.Addr)

		return httpServer.ListenAndServeTLS(srv.TLS.CertFile, srv.TLS.KeyFile)
	default:
		return fmt.Errorf("unknown tls mode %q", srv.TLS.Mode)
	}
}

func (srv *Server) listenAndServeAutoCert(ctx context.Context, httpServer *http.Server) error {
	autoCert := srv.TLS.AutoCert
	if autoCert == nil || len(autoCert.Domains) == 0 {
		return errors.New("autocert mode requires at least one domain")
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		Cache:      autocert.DirCache(autoCert.CacheDir),
		HostPolicy: autocert.HostWhitelist(autoCert.Domains...),
		Email:      autoCert.Email,
	}

	httpServer.TLSConfig = manager.TLSConfig()

	// The ACME http-01 challenge (and the redirect to https) is served on
	// port 80 alongside the TLS listener.
	challengeServer := &http.Server{
		Addr:              net.JoinHostPort(srv.Host, "80"),
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		err := challengeServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "acme challenge server failed", "error", err)
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = challengeServer.Shutdown(shutdownCtx)
	}()

	slog.InfoContext(ctx, "listening", "address", domainsToHTTPSAddress(autoCert.Domains))

	return httpServer.ListenAndServeTLS("", "")
}

func domainsToHTTPSAddress(domains []string) string {
	addresses := make([]string, 0, len(domains))

	for _, domain := range domains {
		addresses = append(addresses, "https://"+domain)
	}

	return strings.Join(addresses, ", ")
}

package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/soaringjerry/Echoform/internal/api"
)

const shutdownTimeout = 10 * time.Second

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the console HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			h, err := a.serverHandler()
			if err != nil {
				return err
			}
			return a.serve(ctx, h)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func (a *app) serverHandler() (http.Handler, error) {
	cl, err := a.client()
	if err != nil {
		return nil, err
	}
	return api.NewRouter(cl, api.Options{
		Version:              versionString(),
		DefaultLocale:        a.cfg.Locale,
		AllowedOrigin:        a.cfg.AllowedOrigin,
		PublicBaseURL:        a.cfg.PublicBaseURL,
		WriteTimeout:         a.cfg.Backend.WriteTimeout,
		MaxConcurrentFetches: a.cfg.Backend.MaxConcurrentFetches,
		FallbackQuestions:    a.cfg.FallbackQuestions,
		Frontend:             a.frontend(),
	}, a.log).Handler(), nil
}

// frontend serves the built UI from disk, or proxies to a dev server.
func (a *app) frontend() http.Handler {
	if a.cfg.StaticDir != "" {
		return http.FileServer(http.Dir(a.cfg.StaticDir))
	}
	if a.cfg.DevFrontendURL == "" {
		return nil
	}
	u, err := url.Parse(a.cfg.DevFrontendURL)
	if err != nil || u.Host == "" {
		a.log.Warn("invalid dev frontend url", zap.String("url", a.cfg.DevFrontendURL), zap.Error(err))
		return nil
	}
	rp := httputil.NewSingleHostReverseProxy(u)
	rp.ModifyResponse = func(res *http.Response) error {
		res.Header.Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		res.Header.Set("Pragma", "no-cache")
		res.Header.Set("Expires", "0")
		return nil
	}
	return rp
}

func (a *app) serve(ctx context.Context, h http.Handler) error {
	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.log.Info("echoform listening", zap.String("addr", a.cfg.Addr), zap.String("version", versionString()), zap.String("build_time", buildTime),
			zap.String("backend", a.cfg.Backend.BaseURL))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	a.log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func versionString() string {
	v := version
	if commit != "" {
		v += "+" + commit
	}
	return v
}

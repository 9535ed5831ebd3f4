package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/abhisek/lernbuddy/internal/generation"
	"github.com/abhisek/lernbuddy/internal/httpapi"
	"github.com/abhisek/lernbuddy/internal/llm"
	"github.com/abhisek/lernbuddy/internal/metrics"
	"github.com/abhisek/lernbuddy/internal/profile"
	"github.com/abhisek/lernbuddy/internal/testsession"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			rt.cfg.Server.Addr = addr
		}
		if rt.cfg.Log.Mode == "prod" {
			gin.SetMode(gin.ReleaseMode)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		m := metrics.New()
		deps := buildServices(ctx, rt, m)

		srv := &http.Server{
			Addr:         rt.cfg.Server.Addr,
			Handler:      httpapi.New(deps).Handler(),
			ReadTimeout:  rt.cfg.Server.ReadTimeout,
			WriteTimeout: rt.cfg.Server.WriteTimeout,
		}

		errCh := make(chan error, 1)
		go func() {
			rt.log.Info("listening", "addr", srv.Addr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("serve: %w", err)
		case <-ctx.Done():
		}

		rt.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

// buildServices wires the engine. Without a usable LLM configuration the
// engine still runs and serves fallback content only.
func buildServices(ctx context.Context, rt *runtime, m *metrics.Metrics) httpapi.Deps {
	cfg := rt.cfg

	var gen generation.Generator
	if err := cfg.LLM.Validate(); err != nil {
		rt.log.Warn("LLM provider not configured, serving fallback content only", "error", err)
	} else {
		provider, err := llm.NewProvider(ctx, cfg.LLM, rt.store.EventRepo(), rt.log)
		if err != nil {
			rt.log.Warn("LLM provider unavailable, serving fallback content only", "error", err)
		} else {
			gen = llm.NewClient(provider, cfg.LLM, llm.WithLogger(rt.log), llm.WithMetrics(m))
			rt.log.Info("LLM provider ready", "provider", cfg.LLM.Provider, "model", provider.ModelID())
		}
	}

	content := generation.New(gen,
		generation.WithConfig(cfg.Generation()),
		generation.WithLogger(rt.log),
		generation.WithMetrics(m),
	)
	analyzer := profile.NewAnalyzer(rt.store.Profiles(),
		profile.WithHistoryLimit(cfg.Engine.ProfileHistoryLimit),
		profile.WithLogger(rt.log),
		profile.WithMetrics(m),
	)
	sessions := testsession.New(rt.store.Sessions(), analyzer, content,
		testsession.WithConfig(cfg.Sessions()),
		testsession.WithLogger(rt.log),
		testsession.WithMetrics(m),
	)

	return httpapi.Deps{
		Sessions: sessions,
		Profiles: analyzer,
		Content:  content,
		Metrics:  m,
		Log:      rt.log,
	}
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}

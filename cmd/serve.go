// -- cmd/serve.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/donmccasland/gdc-gemini-munich-demo/api/schemas"
	"github.com/donmccasland/gdc-gemini-munich-demo/internal/chat"
	"github.com/donmccasland/gdc-gemini-munich-demo/internal/config"
	"github.com/donmccasland/gdc-gemini-munich-demo/internal/dashboard"
	"github.com/donmccasland/gdc-gemini-munich-demo/internal/generator"
	"github.com/donmccasland/gdc-gemini-munich-demo/internal/llmclient"
	"github.com/donmccasland/gdc-gemini-munich-demo/internal/observability"
	"github.com/donmccasland/gdc-gemini-munich-demo/internal/scheduler"
	"github.com/donmccasland/gdc-gemini-munich-demo/internal/session"
	"github.com/donmccasland/gdc-gemini-munich-demo/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard HTTP server.",
	Long: `Serve loads the seed report collection, starts the per-session background
refresher and exposes the dashboard API until interrupted.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.NewConfigFromViper(viper.GetViper())
	if err != nil {
		return err
	}
	logger := observability.GetLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := newLLMClient(cfg, logger)
	if err != nil {
		return err
	}
	assistant := chat.New(client, cfg.Chat.Temperature, logger)

	switch cfg.Store.Mode {
	case config.ModeFraud:
		adapter, err := dashboard.NewFraudAdapter()
		if err != nil {
			return err
		}
		var gen store.Generator[*schemas.FraudReport]
		if cfg.LLM.Provider == config.ProviderStatic {
			gen = generator.StaticFraudGenerator{}
		} else {
			gen = generator.NewFraudGenerator(client, cfg.LLM.Temperature, logger)
		}
		return serveDashboard(ctx, cfg, gen, adapter, assistant, logger)

	case config.ModeAssessments:
		adapter, err := dashboard.NewAssessmentAdapter()
		if err != nil {
			return err
		}
		var gen store.Generator[*schemas.Assessment]
		if cfg.LLM.Provider == config.ProviderStatic {
			gen = generator.StaticAssessmentGenerator{}
		} else {
			gen = generator.NewAssessmentGenerator(client, cfg.LLM.Temperature, logger)
		}
		return serveDashboard(ctx, cfg, gen, adapter, assistant, logger)

	default:
		return fmt.Errorf("unsupported store mode %q", cfg.Store.Mode)
	}
}

// newLLMClient picks the generation backend from the configuration.
func newLLMClient(cfg *config.Config, logger *zap.Logger) (llmclient.Client, error) {
	switch cfg.LLM.Provider {
	case config.ProviderStatic:
		logger.Warn("Running with the offline generation backend")
		return llmclient.NewStaticClient(), nil
	case config.ProviderGemini:
		return llmclient.NewGeminiClient(cfg.LLM, logger)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLM.Provider)
	}
}

// serveDashboard runs the HTTP server for one record shape until the
// context is cancelled, then drains it within the shutdown timeout.
func serveDashboard[R schemas.Record](
	ctx context.Context,
	cfg *config.Config,
	gen store.Generator[R],
	adapter dashboard.Adapter[R],
	assistant *chat.Assistant,
	logger *zap.Logger,
) error {
	factory := func(ctx context.Context) (*store.Store[R], error) {
		return store.New[R](ctx, store.Options{
			SeedPath:      cfg.Store.SeedPath,
			InitialSample: cfg.Store.InitialSample,
			InitialBatch:  cfg.Store.InitialBatch,
			RetryCap:      cfg.Store.GenerateRetryCap,
		}, gen, logger)
	}

	sessions := session.NewManager(ctx, factory, session.Options{
		ResetSize:    cfg.Store.ResetSize,
		HistoryLimit: cfg.Chat.HistoryLimit,
		Refresh: scheduler.Options{
			Interval:        cfg.Store.RefreshInterval,
			Cap:             cfg.Store.Cap,
			GenerateTimeout: cfg.Store.GenerateTimeout,
		},
	}, logger)
	defer sessions.Close()

	api := dashboard.NewServer(sessions, assistant, adapter, logger)
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("Dashboard server listening",
		zap.String("addr", cfg.Server.Addr),
		zap.String("mode", string(cfg.Store.Mode)),
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("dashboard server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down dashboard server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("dashboard shutdown: %w", err)
	}
	return nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"neuroscreen/internal/assessment"
	"neuroscreen/internal/config"
	logger "neuroscreen/internal/logging"
	"neuroscreen/internal/models"
	"neuroscreen/internal/router"
	"neuroscreen/internal/services"
	"neuroscreen/internal/voice"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("port", "", "Port to listen on (overrides server.port)")
	serveCmd.Flags().Bool("release", false, "Run gin in release mode")
}

func runServe(cmd *cobra.Command, args []string) error {
	root, err := projectRoot(cmd)
	if err != nil {
		return err
	}

	store, v, err := config.Load(root)
	if err != nil {
		return err
	}
	cfg := store.Get()
	cfg.Logging.Directory = resolvePath(root, cfg.Logging.Directory)

	log, err := logger.Init(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	config.Watch(v, store, log)

	battery := models.DefaultBattery()
	if path := resolvePath(root, cfg.Assessment.BatteryFile); path != "" {
		battery, err = models.LoadBattery(path)
		if err != nil {
			log.Error("Failed to load battery", zap.String("path", path), zap.Error(err))
			return err
		}
	}

	if release, _ := cmd.Flags().GetBool("release"); release {
		gin.SetMode(gin.ReleaseMode)
	}
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Server.Port = port
	}
	cfg.Server.AssetsDir = resolvePath(root, cfg.Server.AssetsDir)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := assessment.NewRegistry(log, battery, cfg.Assessment.AttemptTTL, nil,
		assessment.WithMaxAttempts(cfg.Assessment.MaxAttempts))
	sweeperDone := services.NewSweeper(log, registry, cfg.Assessment.SweepInterval).Start(ctx)

	predictor := &configuredClassifier{store: store, log: log}
	r := router.Setup(log, cfg, battery, registry, predictor)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening on http://localhost:" + cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Failed to run server", zap.Error(err))
			stop()
			<-sweeperDone
			return err
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
		return err
	}
	<-sweeperDone
	log.Info("Server stopped")
	return nil
}

// configuredClassifier reads the classifier settings on every call so that
// edits to config.yaml take effect without a restart.
type configuredClassifier struct {
	store *config.Store
	log   *zap.Logger
}

func (c *configuredClassifier) Predict(ctx context.Context, f voice.Features) (*voice.Prediction, error) {
	cfg := c.store.Get().Classifier
	return voice.NewClient(cfg.URL, cfg.Timeout, c.log).Predict(ctx, f)
}

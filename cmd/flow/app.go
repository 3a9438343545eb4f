package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sandeepkv93/flow/internal/assistant"
	"github.com/sandeepkv93/flow/internal/config"
	"github.com/sandeepkv93/flow/internal/logging"
	"github.com/sandeepkv93/flow/internal/storage"
	"github.com/sandeepkv93/flow/internal/store"
	"github.com/sandeepkv93/flow/internal/update"
)

func runApp(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.Options{ConfigPath: configPath})
	if err != nil {
		return err
	}
	if dataFile != "" {
		cfg.Storage.Path = dataFile
	}

	logger, closeLog, err := logging.New(logging.Config{Level: cfg.Log.Level, Path: cfg.Log.Path})
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()
	defer func() { _ = logger.Sync() }()

	repo, err := openRepository(cfg.Storage)
	if err != nil {
		logger.Error("open storage", zap.Error(err))
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Warn("close storage", zap.Error(err))
		}
	}()

	logLastSave(cmd.Context(), repo, logger)

	writer := storage.NewWriter(repo, cfg.Storage.SaveBuffer, logger.Named("storage"))
	writer.Start()
	defer func() {
		_ = writer.Close()
		logger.Info("writer drained", zap.Uint64("written", writer.Written()), zap.Uint64("coalesced", writer.Coalesced()))
	}()

	completer, err := assistant.New(assistant.Config{
		Provider:  cfg.Assistant.Provider,
		APIKey:    cfg.Assistant.APIKey,
		Model:     cfg.Assistant.Model,
		BaseURL:   cfg.Assistant.BaseURL,
		Timeout:   cfg.Assistant.Timeout,
		RateLimit: cfg.Assistant.RateLimit,
		Burst:     cfg.Assistant.Burst,
	})
	if err != nil {
		return err
	}
	svc := assistant.NewService(completer, cfg.Assistant.Timeout, logger.Named("assistant"))

	runtimeCfg, err := update.RuntimeConfigFrom(*cfg)
	if err != nil {
		return err
	}

	logger.Info("starting flow",
		zap.String("version", version),
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.String("storage_path", cfg.Storage.Path),
		zap.String("assistant_provider", cfg.Assistant.Provider),
		zap.String("assistant_key", logging.Redact(cfg.Assistant.APIKey)),
		zap.Bool("assistant_available", svc.Available()),
	)

	tasks := store.New(writer, store.WithLogger(logger.Named("store")))
	model := update.NewModel(update.Deps{
		Store:      tasks,
		Loader:     repo,
		SaveErrors: writer.Errors(),
		Assistant:  svc,
		Notifier:   update.ExecDesktopNotifier{},
		Logger:     logger.Named("ui"),
	}, runtimeCfg)

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

// logLastSave reports when a backend that tracks it last persisted state.
func logLastSave(ctx context.Context, repo storage.Repository, logger *zap.Logger) {
	tracker, ok := repo.(interface {
		SavedAt(ctx context.Context) (time.Time, error)
	})
	if !ok {
		return
	}
	savedAt, err := tracker.SavedAt(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		logger.Info("no previous save recorded")
	case err != nil:
		logger.Warn("read last save time", zap.Error(err))
	default:
		logger.Info("previous save", zap.Time("saved_at", savedAt))
	}
}

func openRepository(cfg config.StorageConfig) (storage.Repository, error) {
	if cfg.Driver == config.DriverSQLite {
		repo, err := storage.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}
	repo, err := storage.NewJSONFileRepository(cfg.Path)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

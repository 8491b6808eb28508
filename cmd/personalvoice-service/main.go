// main package for the personalvoice-service
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/personalvoice-service/internal/config"
	"github.com/book-expert/personalvoice-service/internal/customvoice"
	"github.com/book-expert/personalvoice-service/internal/objectstore"
	"github.com/book-expert/personalvoice-service/internal/pathutil"
	"github.com/book-expert/personalvoice-service/internal/provision"
	"github.com/book-expert/personalvoice-service/internal/synth"
	"github.com/book-expert/personalvoice-service/internal/worker"
	"github.com/nats-io/nats.go"
)

func setupLogger(logPath string) (*logger.Logger, error) {
	err := pathutil.EnsureDir(logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	log, err := logger.New(logPath, "personalvoice-service.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		// If bootstrap logger fails, we can only print to stderr
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	bootstrapLog.Info("Bootstrap logger created.")

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	// 3. Initialize the final logger based on the loaded configuration
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	return runWorker(cfg, finalLog)
}

// runWorker wires the NATS transport, the audio store, the Custom Voice
// client, and the speech engine into the worker loop.
func runWorker(cfg *config.Config, log *logger.Logger) error {
	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}

	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to get JetStream context: %w", err)
	}

	store, err := objectstore.New(jetstreamContext, cfg.NATS.AudioObjectStoreBucket)
	if err != nil {
		return fmt.Errorf("failed to initialize audio object store: %w", err)
	}

	client := customvoice.New(cfg.PersonalVoice.APIVersion)
	provisioner := provision.New(
		client,
		log,
		time.Duration(cfg.PersonalVoice.PollTimeoutSeconds)*time.Second,
		time.Duration(cfg.PersonalVoice.PollIntervalSeconds)*time.Second,
	)
	synthesizer := synth.New(synth.NewAzureEngine(), log)

	natsWorker, err := worker.NewNatsWorker(
		natsConnection,
		jetstreamContext,
		cfg.NATS.ProvisionSubject,
		cfg.NATS.SynthesisSubject,
		store,
		provisioner,
		synthesizer,
		pathutil.ExpandHome(cfg.PersonalVoice.ConfigPath),
		pathutil.ExpandHome(cfg.PersonalVoice.OutputWavPath),
		log,
	)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.System(
		"Personalvoice-service successfully initialized. Listening for jobs on subjects: %s, %s",
		cfg.NATS.ProvisionSubject, cfg.NATS.SynthesisSubject,
	)

	err = natsWorker.Run(ctx)
	if err != nil {
		return fmt.Errorf("worker exited with error: %w", err)
	}

	return nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/peoplehub/hr-backoffice/internal/core/events"
	"github.com/peoplehub/hr-backoffice/internal/notification"
	"github.com/peoplehub/hr-backoffice/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start worker pools for background services",
	Long:  `Start and manage worker pools for background services like mail delivery and event processing.`,
}

var mailWorkerCmd = &cobra.Command{
	Use:   "mail",
	Short: "Start mail relay worker pool",
	Long:  `Start the mail relay worker pool for background notification delivery`,
	Run: func(cmd *cobra.Command, args []string) {
		startMailWorker()
	},
}

var eventWorkerCmd = &cobra.Command{
	Use:   "events",
	Short: "Start event bus worker",
	Long:  `Start the event bus`,
	Run: func(cmd *cobra.Command, args []string) {
		startEventWorker()
	},
}

var (
	maxWorkers   int
	jobQueueSize int
	relayURL     string
	relayAPIKey  string
)

func startMailWorker() {
	cfg, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.L()

	clientConfig := notification.ClientConfig{
		RelayURL:     getStringFlag(relayURL, cfg.Notification.RelayURL),
		APIKey:       getStringFlag(relayAPIKey, cfg.Notification.APIKey),
		SendTimeout:  cfg.Notification.SendTimeout,
		MaxWorkers:   getIntFlag(maxWorkers, cfg.Notification.MaxWorkers),
		JobQueueSize: getIntFlag(jobQueueSize, cfg.Notification.JobQueueSize),
	}

	log.Info("starting mail worker",
		"max_workers", clientConfig.MaxWorkers,
		"job_queue_size", clientConfig.JobQueueSize,
		"relay_url", clientConfig.RelayURL)

	client := notification.NewRelayClient(clientConfig, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Info("mail worker is running. Press Ctrl+C to stop.")

	sig := <-sigChan
	log.Info("received signal, shutting down mail worker", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownDone := make(chan struct{})
	go func() {
		client.Shutdown()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		log.Info("mail worker pool shutdown complete")
	case <-ctx.Done():
		log.Warn("shutdown timeout reached, forcing exit")
	}
}

func startEventWorker() {
	if _, err := loadConfig("."); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.L()

	eventBus := events.NewEventBus(log)

	eventBus.Subscribe("test.event", func(ctx context.Context, event events.Event) error {
		log.Info("received test event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	log.Info("event bus worker started. Waiting for events...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Info("received signal, shutting down event bus", "signal", sig)
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	mailWorkerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Maximum number of mail workers")
	mailWorkerCmd.Flags().IntVar(&jobQueueSize, "queue-size", 0, "Mail job queue size")
	mailWorkerCmd.Flags().StringVar(&relayURL, "relay-url", "", "Mail relay base URL")
	mailWorkerCmd.Flags().StringVar(&relayAPIKey, "api-key", "", "Mail relay API key")

	workerCmd.AddCommand(mailWorkerCmd)
	workerCmd.AddCommand(eventWorkerCmd)
}

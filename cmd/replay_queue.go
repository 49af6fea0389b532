package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/psds-microservice/live-request-service/internal/config"
	"github.com/psds-microservice/live-request-service/internal/database"
	"github.com/psds-microservice/live-request-service/internal/kafka"
	"github.com/psds-microservice/live-request-service/internal/model"
	"github.com/psds-microservice/live-request-service/internal/service"
	"github.com/spf13/cobra"
)

var replayQueueCmd = &cobra.Command{
	Use:   "replay-queue",
	Short: "Republish all PENDING live requests to Kafka as live_request.created (rebuilds downstream queues)",
	RunE:  runReplayQueue,
}

func runReplayQueue(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if !cfg.KafkaEnabled() {
		log.Println("replay-queue: KAFKA_BROKERS or KAFKA_TOPIC_LIVE_REQUEST not set, nothing to do")
		return nil
	}
	conn, err := database.Open(cfg.DSN())
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
	defer cancel()

	// Сервис без провайдера: нужна только выборка очереди.
	pending, err := service.NewLiveRequestService(conn, nil, nil, service.Options{}, nil).ListPending(ctx)
	if err != nil {
		return fmt.Errorf("list pending: %w", err)
	}
	log.Printf("replay-queue: found %d pending live requests", len(pending))

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicLiveRequest, nil)
	defer producer.Close()
	n := replayPending(ctx, producer, pending)
	log.Printf("replay-queue: done, sent %d events to %s", n, cfg.KafkaTopicLiveRequest)
	return nil
}

func replayPending(ctx context.Context, events kafka.LiveRequestEventProducer, pending []model.LiveVideoRequest) int {
	for i := range pending {
		if ctx.Err() != nil {
			return i
		}
		events.ProduceLiveRequestEvent(ctx, kafka.EventLiveRequestCreated, service.EventPayload(&pending[i]))
		if (i+1)%50 == 0 || i == len(pending)-1 {
			log.Printf("replay-queue: sent %d/%d", i+1, len(pending))
		}
	}
	return len(pending)
}

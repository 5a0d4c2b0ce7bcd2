// Package main 批量生成任务执行器入口（bulk-worker）
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"seo-ai-api/internal/config"
	"seo-ai-api/internal/infrastructure/messaging"
	"seo-ai-api/internal/wire"
	"seo-ai-api/pkg/logger"
	"seo-ai-api/pkg/tracer"
)

// dlqAlertThreshold 死信队列告警阈值
const dlqAlertThreshold = 10

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: "bulk-worker",
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	worker, cleanup, err := wire.InitializeWorker(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "failed to initialize worker", err)
	}
	defer cleanup()

	streamCfg := cfg.Messaging.RedisStream
	group := messaging.ConsumerGroupBulkWorker
	if streamCfg.ConsumerGroupPrefix != "" {
		group = messaging.ConsumerGroup(streamCfg.ConsumerGroupPrefix + ":" + string(group))
	}
	consumer := messaging.NewConsumer(worker.RedisClient.Redis(), messaging.ConsumerConfig{
		Stream:       messaging.StreamBulkJob,
		Group:        group,
		ConsumerName: hostnameConsumerName(),
		BlockTimeout: streamCfg.BlockTimeout,
		RetryLimit:   streamCfg.RetryLimit,
		Backoff:      messaging.BackoffFromConfig(streamCfg.RetryBackoff),
	})

	consumer.RegisterHandler(messaging.MessageTypeBulkJob, func(msgCtx context.Context, msg *messaging.Message) error {
		var payload messaging.BulkJobMessage
		if err := msg.UnmarshalPayload(&payload); err != nil {
			return err
		}
		logger.Info(msgCtx, "bulk job received", "job_id", payload.JobID, "items", payload.ItemCount)
		return worker.Jobs.Execute(msgCtx, payload.JobID)
	})

	if err := consumer.Start(ctx); err != nil {
		logger.Fatal(ctx, "failed to start consumer", err)
	}
	go consumer.MonitorDLQ(ctx, dlqAlertThreshold)

	log := logger.FromContext(ctx)
	log.Info("bulk-worker started", "stream", string(messaging.StreamBulkJob), "group", string(group))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("bulk-worker shutting down")
	consumer.Stop()
	cancel()
}

func hostnameConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"seo-ai-api/internal/application/bulk"
	"seo-ai-api/internal/application/contentstore"
	"seo-ai-api/internal/application/generation"
	"seo-ai-api/internal/config"
	"seo-ai-api/internal/infrastructure/gateway"
	"seo-ai-api/internal/interfaces/http/handler"
	"seo-ai-api/internal/interfaces/http/router"
)

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		StoreSet,
		ProvideRedisClientOptional,
		GenerationSet,
		BulkSet,
		ProvidePublisher,
		RouterSet,
	)
	return nil, nil, nil
}

// InitializeWorker 初始化批量任务 worker，Redis 必需
func InitializeWorker(ctx context.Context, cfg *config.Config) (*Worker, func(), error) {
	wire.Build(
		StoreSet,
		ProvideRedisClient,
		GenerationSet,
		BulkSet,
		ProvideWorkerPublisher,
		wire.Struct(new(Worker), "*"),
	)
	return nil, nil, nil
}

// InitializeBootstrap 仅初始化存储（用于 bootstrap）
func InitializeBootstrap(ctx context.Context, cfg *config.Config) (*Bootstrap, func(), error) {
	wire.Build(
		ProvidePostgresClient,
		ProvideItemRepository,
		wire.Struct(new(Bootstrap), "*"),
	)
	return nil, nil, nil
}

// StoreSet 存储提供者集合
var StoreSet = wire.NewSet(
	ProvidePostgresClient,
	ProvideItemRepository,
	ProvideJobRepository,
)

// GenerationSet 生成链路提供者集合
var GenerationSet = wire.NewSet(
	ProvideGatewayClient,
	ProvidePromptBuilder,
	ProvideContentStore,
	generation.NewDefaultRegistry,
	generation.NewOrchestrator,
	wire.Bind(new(generation.Gateway), new(*gateway.Client)),
)

// BulkSet 批量执行提供者集合
var BulkSet = wire.NewSet(
	ProvideBulkRateLimiter,
	ProvideBulkRunner,
	bulk.NewJobService,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideHTTPRateLimiter,
	ProvideHealthHandler,
	handler.NewItemHandler,
	handler.NewBulkHandler,
	handler.NewJobHandler,
	handler.NewGatewayHandler,
	wire.Bind(new(handler.Generator), new(*generation.Orchestrator)),
	wire.Bind(new(handler.FieldStore), new(*contentstore.Adapter)),
	wire.Bind(new(handler.BatchRunner), new(*bulk.Runner)),
	wire.Bind(new(handler.JobManager), new(*bulk.JobService)),
	wire.Bind(new(handler.ConnectionProber), new(*gateway.Client)),
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)

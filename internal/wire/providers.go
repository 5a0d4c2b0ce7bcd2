// Package wire 提供依赖注入配置
package wire

import (
	"context"
	"time"

	"seo-ai-api/internal/application/bulk"
	"seo-ai-api/internal/application/contentstore"
	"seo-ai-api/internal/application/generation"
	"seo-ai-api/internal/application/prompt"
	"seo-ai-api/internal/config"
	"seo-ai-api/internal/domain/repository"
	"seo-ai-api/internal/infrastructure/gateway"
	"seo-ai-api/internal/infrastructure/messaging"
	"seo-ai-api/internal/infrastructure/persistence/memory"
	"seo-ai-api/internal/infrastructure/persistence/postgres"
	"seo-ai-api/internal/infrastructure/persistence/redis"
	"seo-ai-api/internal/interfaces/http/handler"
	"seo-ai-api/internal/interfaces/http/middleware"
	"seo-ai-api/pkg/logger"
)

const (
	storeDriverMemory = "memory"
	jobCacheTTL       = 30 * time.Second
	defaultStreamLen  = 10000
)

// Worker 批量任务 worker 依赖
type Worker struct {
	Config      *config.Config
	RedisClient *redis.Client
	Jobs        *bulk.JobService
}

// Bootstrap 初始化工具依赖
type Bootstrap struct {
	PgClient *postgres.Client
	Items    repository.ItemRepository
}

// ProvidePostgresClient 提供 PostgreSQL 客户端，memory 驱动时返回 nil
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	if cfg.Store.Driver == storeDriverMemory {
		return nil, func() {}, nil
	}
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClientOptional Redis 不可达时降级为进程内执行
func ProvideRedisClientOptional(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Warn(ctx, "redis not available, queue and rate limit disabled", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideItemRepository 按存储驱动选择条目仓储
func ProvideItemRepository(cfg *config.Config, pg *postgres.Client) repository.ItemRepository {
	if pg == nil {
		return memory.NewItemRepository()
	}
	return postgres.NewItemRepository(pg, cfg.Store.UploadsDir)
}

// ProvideJobRepository 按存储驱动选择任务仓储，有 Redis 时叠加读缓存
func ProvideJobRepository(pg *postgres.Client, rc *redis.Client) repository.BulkJobRepository {
	var repo repository.BulkJobRepository
	if pg == nil {
		repo = memory.NewJobRepository()
	} else {
		repo = postgres.NewJobRepository(pg)
	}
	if rc == nil {
		return repo
	}
	return redis.NewCachedJobRepository(repo, redis.NewCache(rc), jobCacheTTL)
}

// ProvideGatewayClient 提供 AI 网关客户端
func ProvideGatewayClient(cfg *config.Config) *gateway.Client {
	return gateway.NewClient(cfg.Gateway)
}

// ProvidePromptBuilder 提供提示词构建器
func ProvidePromptBuilder(cfg *config.Config) *prompt.Builder {
	return prompt.NewBuilder(cfg.Prompt, cfg.Brain)
}

// ProvideContentStore 提供内容存储适配器，PostgreSQL 下字段保存走事务
func ProvideContentStore(repo repository.ItemRepository, cfg *config.Config, pg *postgres.Client) *contentstore.Adapter {
	if pg == nil {
		return contentstore.NewAdapter(repo, cfg.Store)
	}
	return contentstore.NewAdapter(repo, cfg.Store, contentstore.WithTransactor(postgres.NewTxManager(pg)))
}

// ProvideBulkRateLimiter 无 Redis 时返回 nil 接口
func ProvideBulkRateLimiter(rc *redis.Client) bulk.RateLimiter {
	if rc == nil {
		return nil
	}
	return redis.NewRateLimiter(rc)
}

// ProvideHTTPRateLimiter 无 Redis 时返回 nil 接口
func ProvideHTTPRateLimiter(rc *redis.Client) middleware.RateLimiter {
	if rc == nil {
		return nil
	}
	return redis.NewRateLimiter(rc)
}

// ProvideBulkRunner 提供批量执行器
func ProvideBulkRunner(orch *generation.Orchestrator, cfg *config.Config, limiter bulk.RateLimiter) *bulk.Runner {
	var opts []bulk.Option
	if limiter != nil {
		opts = append(opts, bulk.WithRateLimiter(limiter))
	}
	return bulk.NewRunner(orch, cfg.Bulk, opts...)
}

// ProvidePublisher 有 Redis 时经 Stream 投递任务
func ProvidePublisher(rc *redis.Client, cfg *config.Config) bulk.Publisher {
	if rc == nil {
		return nil
	}
	maxLen := cfg.Messaging.RedisStream.MaxLen
	if maxLen <= 0 {
		maxLen = defaultStreamLen
	}
	return messaging.NewProducer(rc.Redis(), int64(maxLen))
}

// ProvideWorkerPublisher worker 只执行任务，不再投递
func ProvideWorkerPublisher() bulk.Publisher {
	return nil
}

// ProvideHealthHandler 存储依赖必需，网关可选
func ProvideHealthHandler(cfg *config.Config, pg *postgres.Client, rc *redis.Client, gw *gateway.Client) *handler.HealthHandler {
	deps := []handler.Dependency{{Name: "gateway", Checker: gw}}
	if pg != nil {
		deps = append(deps, handler.Dependency{Name: "postgres", Checker: pg, Required: true})
	}
	if rc != nil {
		deps = append(deps, handler.Dependency{Name: "redis", Checker: rc, Required: true})
	}
	return handler.NewHealthHandler(cfg.App.Version, deps...)
}

package server

import (
	"github.com/google/wire"

	"github.com/iWorld-y/miniflux_ai/internal/agent"
	"github.com/iWorld-y/miniflux_ai/internal/content"
	"github.com/iWorld-y/miniflux_ai/internal/digest"
	"github.com/iWorld-y/miniflux_ai/internal/engine"
	"github.com/iWorld-y/miniflux_ai/internal/llm"
	"github.com/iWorld-y/miniflux_ai/internal/miniflux"
	"github.com/iWorld-y/miniflux_ai/internal/scheduler"
	"github.com/iWorld-y/miniflux_ai/internal/storage"
)

// ProviderSet 是 miniflux_ai 的依赖注入 Provider 集合
var ProviderSet = wire.NewSet(
	// Server providers
	NewHTTPServer,
	NewHandler,
	wire.Bind(new(BatchProcessor), new(*engine.Engine)),
	wire.Bind(new(DigestSource), new(*storage.DigestStore)),

	// Data providers
	miniflux.NewClient,
	storage.NewCacheStore,
	storage.NewDigestStore,
	content.NewFetcher,

	// Generation providers
	llm.NewChatModel,
	llm.NewRateWindowFromConfig,
	llm.NewGateway,

	// UseCase providers
	agent.NewRunner,
	wire.Bind(new(agent.Generator), new(*llm.Gateway)),
	wire.Bind(new(agent.SummarySink), new(*storage.CacheStore)),
	engine.NewEngine,
	wire.Bind(new(engine.EntryRunner), new(*agent.Runner)),
	wire.Bind(new(engine.FeedService), new(*miniflux.Client)),
	digest.NewComposer,
	wire.Bind(new(digest.Drainer), new(*storage.CacheStore)),
	wire.Bind(new(digest.Writer), new(*storage.DigestStore)),
	wire.Bind(new(digest.Generator), new(*llm.Gateway)),
	wire.Bind(new(digest.FeedRefresher), new(*miniflux.Client)),

	// Scheduler providers
	scheduler.NewScheduler,
	wire.Bind(new(scheduler.FeedAdmin), new(*miniflux.Client)),
	wire.Bind(new(scheduler.Poller), new(*engine.Engine)),
	wire.Bind(new(scheduler.Composer), new(*digest.Composer)),
)

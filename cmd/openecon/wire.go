package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hanlulong/openecon-data-sub002/internal/breaker"
	"github.com/hanlulong/openecon-data-sub002/internal/cache"
	"github.com/hanlulong/openecon-data-sub002/internal/comtrade"
	"github.com/hanlulong/openecon-data-sub002/internal/config"
	"github.com/hanlulong/openecon-data-sub002/internal/httpclient"
	"github.com/hanlulong/openecon-data-sub002/internal/index"
	"github.com/hanlulong/openecon-data-sub002/internal/intent"
	"github.com/hanlulong/openecon-data-sub002/internal/orchestrator"
	"github.com/hanlulong/openecon-data-sub002/internal/provider"
	"github.com/hanlulong/openecon-data-sub002/internal/sdmx"
	"github.com/hanlulong/openecon-data-sub002/internal/snapshot"
)

// app bundles every long-lived component the CLI's subcommands need. Built
// once per process invocation by wireApp, which constructs the provider
// registry a single time rather than per-command.
type app struct {
	cfg *config.Config
	orchestrator *orchestrator.Orchestrator
	idx *index.Index
	snapshots *snapshot.Store
}

func wireApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(opsConfigPath)
	if err != nil {
 return nil, fmt.Errorf("loading config: %w", err)
	}

	idx, err := index.Open(cfg.IndexPath)
	if err != nil {
 return nil, fmt.Errorf("opening indicator index: %w", err)
	}

	pool := httpclient.New(cfg.Pool)
	breakers := breaker.NewRegistry(cfg.Breaker)
	respCache := cache.New(10_000, 5*time.Minute)
	limiters := provider.NewLimiters()

	snapStore, err := snapshot.New(ctx, cfg.Snapshot)
	if err != nil {
 return nil, fmt.Errorf("initializing snapshot store: %w", err)
	}
	if snapStore.Exists(ctx, "index.sqlite") {
 if err := snapStore.DownloadFile(ctx, "index.sqlite", cfg.IndexPath); err != nil {
 log.Warn().Err(err).Msg("failed to warm-start index from snapshot, continuing cold")
 } else if err := idx.Reopen(cfg.IndexPath); err != nil {
 log.Warn().Err(err).Msg("failed to reopen index after snapshot download")
 }
	}

	deps := provider.Deps{Pool: pool, Breakers: breakers, Cache: respCache, Limiters: limiters}

	registry := provider.NewRegistry()
	registerAdapters(registry, cfg, deps, idx, pool)

	comtradeAdapter := comtrade.NewAdapter(comtrade.Config{
 BaseURL: "https://comtradeapi.un.org/data/v1/get",
 APIKey: cfg.ProviderAPIKeys["comtrade"],
 RPS: 1, Burst: 2,
	}, comtrade.Deps{Pool: pool, Breakers: breakers, Cache: respCache, Limiters: limiters})

	llmClient := intent.NewClient(cfg.LLM)
	resolver := intent.NewResolver(llmClient, respCache, idx)

	orch := &orchestrator.Orchestrator{
 Resolver: resolver,
 Index: idx,
 Providers: registry,
 Breakers: breakers,
 Cache: respCache,
 TTL: cfg.CacheTTL,
 Budget: orchestrator.DefaultBudget(),
 Comtrade: comtradeAdapter,
	}

	return &app{cfg: cfg, orchestrator: orch, idx: idx, snapshots: snapStore}, nil
}

// registerAdapters wires every configured Family A/C/D provider into
// registry. FRED, the exchange-rate API and Statistics Canada are skipped
// when their API key is absent rather than failing startup; the other
// providers are always registered.
func registerAdapters(registry *provider.Registry, cfg *config.Config, deps provider.Deps, idx *index.Index, pool *httpclient.Pool) {
	if k := cfg.ProviderAPIKeys["fred"]; k != "" {
 fredCfg := provider.DefaultFREDConfig()
 fredCfg.APIKey = k
 rps, burst := cfg.Ops.RateLimit("fred")
 fredCfg.RateLimit = provider.RateLimit{RPS: orDefault(rps, 2), Burst: orDefaultInt(burst, 5)}
 registry.Register(provider.NewFREDProvider(fredCfg, deps))
	}

	worldBankCfg := provider.DefaultWorldBankConfig()
	rps, burst := cfg.Ops.RateLimit("worldbank")
	worldBankCfg.RateLimit = provider.RateLimit{RPS: orDefault(rps, 2), Burst: orDefaultInt(burst, 5)}
	registry.Register(provider.NewWorldBankProvider(worldBankCfg, deps))

	imfCfg := provider.DefaultIMFConfig()
	registry.Register(provider.NewIMFProvider(imfCfg, deps))

	if k := cfg.ProviderAPIKeys["exchangerate"]; k != "" {
 fxCfg := provider.DefaultExchangeRateConfig()
 fxCfg.APIKey = k
 registry.Register(provider.NewExchangeRateProvider(fxCfg, deps))
	}

	cryptoCfg := provider.DefaultCoinGeckoConfig()
	cryptoCfg.APIKey = cfg.ProviderAPIKeys["coingecko"]
	registry.Register(provider.NewCoinGeckoProvider(cryptoCfg, deps))

	if k := cfg.ProviderAPIKeys["statcan"]; k != "" {
 statcanCfg := provider.DefaultStatCanConfig()
 statcanCfg.APIKey = k
 registry.Register(provider.NewStatCanProvider(statcanCfg, deps, idx))
	}

	dsds := sdmx.NewDSDCache(pool, 7*24*time.Hour)
	catalog := sdmx.NewCatalog(nil)

	oecdRPS, oecdBurst := cfg.Ops.RateLimit("oecd")
	registry.Register(provider.NewOECDProvider("https://sdmx.oecd.org/public/rest", provider.RateLimit{RPS: orDefault(oecdRPS, 1), Burst: orDefaultInt(oecdBurst, 2)}, deps, dsds, catalog, idx))

	estatRPS, estatBurst := cfg.Ops.RateLimit("eurostat")
	registry.Register(provider.NewEurostatProvider("https://ec.europa.eu/eurostat/api/dissemination/sdmx/2.1", provider.RateLimit{RPS: orDefault(estatRPS, 2), Burst: orDefaultInt(estatBurst, 4)}, deps, dsds, catalog, idx))

	bisRPS, bisBurst := cfg.Ops.RateLimit("bis")
	registry.Register(provider.NewBISProvider("https://stats.bis.org/api/v2", provider.RateLimit{RPS: orDefault(bisRPS, 1), Burst: orDefaultInt(bisBurst, 2)}, deps, dsds, catalog, idx))
}

func orDefault(v, def float64) float64 {
	if v <= 0 {
 return def
	}
	return v
}

func orDefaultInt(v, def int) int {
	if v <= 0 {
 return def
	}
	return v
}

package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-qualifier/internal/batch"
	"github.com/sells-group/lead-qualifier/internal/cache"
	"github.com/sells-group/lead-qualifier/internal/crm"
	"github.com/sells-group/lead-qualifier/internal/enrich"
	"github.com/sells-group/lead-qualifier/internal/model"
	"github.com/sells-group/lead-qualifier/internal/notify"
	"github.com/sells-group/lead-qualifier/internal/pipeline"
	"github.com/sells-group/lead-qualifier/internal/ratelimit"
	"github.com/sells-group/lead-qualifier/internal/route"
	"github.com/sells-group/lead-qualifier/internal/scoring"
	anthropicpkg "github.com/sells-group/lead-qualifier/pkg/anthropic"
	"github.com/sells-group/lead-qualifier/pkg/clearbit"
	"github.com/sells-group/lead-qualifier/pkg/hunter"
	sfpkg "github.com/sells-group/lead-qualifier/pkg/salesforce"
	"github.com/sells-group/lead-qualifier/pkg/slack"
)

// qualifierEnv holds all initialized clients and the assembled pipeline
// needed by the serve/qualify/batch commands.
type qualifierEnv struct {
	Qualifier    *pipeline.Qualifier
	Orchestrator *batch.Orchestrator
	Jobs         *batch.Store
	Router       *route.Router
	Limiter      *ratelimit.Limiter // nil when Redis is unavailable or disabled
	Cache        *cache.Client      // nil when Redis is unavailable

	redis *redis.Client
}

// Close releases resources held by the environment.
func (qe *qualifierEnv) Close() {
	if qe.Limiter != nil {
		qe.Limiter.Close()
	}
	if qe.redis != nil {
		_ = qe.redis.Close()
	}
}

// initQualifier sets up Redis-backed caching and rate limiting, the
// enrichment providers, scoring engine, and router, and assembles the
// pipeline. Callers should defer env.Close().
func initQualifier(ctx context.Context) (*qualifierEnv, error) {
	env := &qualifierEnv{}

	// Redis is a soft dependency: without it the pipeline runs uncached
	// and admission control fails open.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	err := rdb.Ping(pingCtx).Err()
	cancel()
	if err != nil {
		zap.L().Warn("redis unavailable, running without cache and rate limits",
			zap.String("addr", cfg.Redis.Addr),
			zap.Error(err),
		)
		_ = rdb.Close()
	} else {
		env.redis = rdb
		env.Cache = cache.New(cache.NewRedisKV(rdb), cache.Options{
			Prefix:          cfg.Cache.Prefix,
			DefaultTTL:      time.Duration(cfg.Cache.DefaultTTLSecs) * time.Second,
			MaxFailures:     cfg.Cache.MaxFailures,
			RecoveryTimeout: time.Duration(cfg.Cache.RecoverySecs) * time.Second,
			OpTimeout:       cfg.Cache.OpTimeout(),
		})
		if cfg.RateLimit.Enabled {
			window := ratelimit.NewSlidingWindow(ratelimit.NewRedisStore(rdb))
			env.Limiter = ratelimit.NewLimiter(window, quotasFromConfig(), cfg.RateLimit.Timeout())
		}
	}

	// Enrichment providers. Both are optional; with none registered the
	// aggregator degrades to lead-derived company data.
	registry := enrich.NewRegistry()
	if cfg.Clearbit.Key != "" {
		var opts []clearbit.Option
		if cfg.Clearbit.BaseURL != "" {
			opts = append(opts, clearbit.WithPersonBaseURL(cfg.Clearbit.BaseURL))
		}
		registry.Register(enrich.NewClearbitProvider(clearbit.NewClient(cfg.Clearbit.Key, opts...)))
	} else {
		zap.L().Warn("LEADQUAL_CLEARBIT_KEY not set, clearbit enrichment disabled")
	}
	if cfg.Hunter.Key != "" {
		var opts []hunter.Option
		if cfg.Hunter.BaseURL != "" {
			opts = append(opts, hunter.WithBaseURL(cfg.Hunter.BaseURL))
		}
		registry.Register(enrich.NewHunterProvider(hunter.NewClient(cfg.Hunter.Key, opts...)))
	} else {
		zap.L().Warn("LEADQUAL_HUNTER_KEY not set, email verification disabled")
	}
	aggregator := enrich.NewAggregator(registry, env.Cache)

	// Scoring. Without an Anthropic key the engine runs rules-only.
	var analyzer scoring.Analyzer
	if cfg.Anthropic.Key != "" {
		analyzer = scoring.NewClaudeAnalyzer(
			anthropicpkg.NewClient(cfg.Anthropic.Key),
			cfg.Anthropic.Model,
			cfg.Anthropic.MaxTokens,
		)
	} else {
		zap.L().Warn("LEADQUAL_ANTHROPIC_KEY not set, scoring runs rules-only")
	}
	engine, err := scoring.NewEngine(scoring.DefaultICP(), scoring.Weights{
		CompanyFit:      cfg.Scoring.CompanyFitWeight,
		IntentSignal:    cfg.Scoring.IntentSignalWeight,
		BudgetIndicator: cfg.Scoring.BudgetIndicatorWeight,
		Urgency:         cfg.Scoring.UrgencyWeight,
	}, analyzer)
	if err != nil {
		env.Close()
		return nil, eris.Wrap(err, "build scoring engine")
	}

	// Routing side effects are both optional.
	var routeOpts []route.Option
	if cfg.Slack.WebhookURL != "" {
		routeOpts = append(routeOpts, route.WithNotifier(notify.NewSlackNotifier(slack.NewClient(cfg.Slack.WebhookURL))))
	}
	if cfg.Salesforce.ClientID != "" {
		sfClient, err := initSalesforce()
		if err != nil {
			env.Close()
			return nil, err
		}
		routeOpts = append(routeOpts, route.WithCRM(crm.NewSyncer(sfClient)))
	}
	router := route.New(routeOpts...)

	reps, err := loadReps(cfg.Router.RepsPath)
	if err != nil {
		env.Close()
		return nil, err
	}
	for _, rep := range reps {
		router.RegisterRep(rep)
	}
	zap.L().Info("rep roster loaded", zap.Int("reps", len(reps)))

	env.Router = router
	env.Qualifier = pipeline.New(aggregator, engine, router, env.Cache)
	env.Jobs = batch.NewStore()
	env.Orchestrator = batch.NewOrchestrator(env.Qualifier.Qualify, env.Jobs)
	return env, nil
}

// quotasFromConfig converts the viper tier table, falling back to the
// shipped defaults when the config omits it.
func quotasFromConfig() map[string]ratelimit.TierQuota {
	if len(cfg.RateLimit.Tiers) == 0 {
		return nil
	}
	quotas := make(map[string]ratelimit.TierQuota, len(cfg.RateLimit.Tiers))
	for tier, limits := range cfg.RateLimit.Tiers {
		quotas[tier] = ratelimit.TierQuota{
			PerSecond: limits.PerSecond,
			PerMinute: limits.PerMinute,
			PerHour:   limits.PerHour,
			PerDay:    limits.PerDay,
			Burst:     limits.Burst,
		}
	}
	return quotas
}

// initSalesforce authenticates with JWT bearer flow.
func initSalesforce() (sfpkg.Client, error) {
	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return sfpkg.NewClient(sf, sfpkg.WithRateLimit(cfg.Salesforce.RPS)), nil
}

// loadReps reads the rep roster from a JSON file, or returns the built-in
// demo roster when no path is configured.
func loadReps(path string) ([]model.SalesRep, error) {
	if path == "" {
		return defaultReps(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read rep roster")
	}
	var reps []model.SalesRep
	if err := json.Unmarshal(data, &reps); err != nil {
		return nil, eris.Wrap(err, "parse rep roster")
	}
	if len(reps) == 0 {
		return nil, eris.New("rep roster is empty")
	}
	return reps, nil
}

func defaultReps() []model.SalesRep {
	return []model.SalesRep{
		{
			ID:          "rep-001",
			Name:        "Alice Chen",
			Email:       "alice@sells.group",
			Territories: []string{"US", "CA"},
			Industries:  []string{"technology", "saas"},
			MaxCapacity: 20,
			IsAvailable: true,
		},
		{
			ID:          "rep-002",
			Name:        "Ben Okafor",
			Email:       "ben@sells.group",
			Territories: []string{"UK", "DE", "FR"},
			Industries:  []string{"finance", "e-commerce"},
			MaxCapacity: 15,
			IsAvailable: true,
		},
		{
			ID:          "rep-003",
			Name:        "Carla Mendez",
			Email:       "carla@sells.group",
			Territories: []string{"US", "AU"},
			Industries:  []string{"healthcare", "technology"},
			MaxCapacity: 25,
			IsAvailable: true,
		},
	}
}

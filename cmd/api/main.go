package main

import (
	"context"

	"github.com/Sathvik2005/Prepforge-sub003/internal/cache"
	"github.com/Sathvik2005/Prepforge-sub003/internal/config"
	"github.com/Sathvik2005/Prepforge-sub003/internal/database"
	"github.com/Sathvik2005/Prepforge-sub003/internal/evaluator"
	"github.com/Sathvik2005/Prepforge-sub003/internal/groq"
	"github.com/Sathvik2005/Prepforge-sub003/internal/logger"
	"github.com/Sathvik2005/Prepforge-sub003/internal/ontology"
	"github.com/Sathvik2005/Prepforge-sub003/internal/orchestrator"
	"github.com/Sathvik2005/Prepforge-sub003/internal/parser"
	"github.com/Sathvik2005/Prepforge-sub003/internal/planner"
	"github.com/Sathvik2005/Prepforge-sub003/internal/questionpool"
	"github.com/Sathvik2005/Prepforge-sub003/internal/selector"
	"github.com/Sathvik2005/Prepforge-sub003/internal/store"
	"github.com/Sathvik2005/Prepforge-sub003/internal/ws"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type application struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Store    store.Store
	Sessions *store.Sessions
	Roadmaps *store.Roadmaps
	Orch     *orchestrator.Orchestrator
	Planner  *planner.Planner
	Importer *questionpool.Importer
	Hub      *ws.Hub
	WS       *ws.Handler
}

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	sugar := log.Sugar()
	sugar.Infof("config loaded: %s", cfg)

	pool, err := database.Connect(ctx, cfg.DB.DSN, cfg.DB.MaxOpenConns, cfg.DB.MaxIdleTime)
	if err != nil {
		sugar.Fatal(err)
	}
	defer pool.Close()

	rdb := cache.NewRedisClient(cfg.Redis)
	if err := cache.Ping(ctx, rdb); err != nil {
		sugar.Warnw("redis unreachable, pool cache degraded to local+pg", "err", err)
	}

	st := store.NewPostgres(pool)
	if err := st.Migrate(ctx); err != nil {
		sugar.Fatal(err)
	}
	poolSvc := questionpool.New(pool, rdb, log)
	if err := poolSvc.Migrate(ctx); err != nil {
		sugar.Fatal(err)
	}

	ont := ontology.New()
	sessions := store.NewSessions(st)
	roadmaps := store.NewRoadmaps(st)
	docs := parser.NewStoreParser(st, ont)

	// Without an API key, every LLM boundary is nil and the rule-based
	// degradation paths carry the whole interview.
	var gq *groq.Client
	var phraser evaluator.FeedbackPhraser
	var gen selector.Generator
	var hinter orchestrator.Hinter
	var textPhraser planner.Phraser
	if cfg.Groq.APIKey != "" {
		gq = groq.NewClient(cfg.Groq.APIKey, cfg.Groq.Model)
		phraser, gen, hinter, textPhraser = gq, gq, gq, gq
	} else {
		sugar.Warn("GROQ_API_KEY unset, running on rule-based paths only")
	}

	eval := evaluator.New(ont, phraser, cfg.Groq.Timeout, log)
	sel := selector.New(ont, poolSvc, gen, cfg.Groq.Timeout, log)
	hub := ws.NewHub(log)

	orch := orchestrator.New(sessions, docs, eval, sel, ont, hub, hinter, orchestrator.Config{
		IdleTimeout:   cfg.Session.IdleTimeout,
		SweepInterval: cfg.Session.SweepInterval,
		HintTimeout:   cfg.Session.HintTimeout,
	}, log)
	defer orch.Close()
	orch.StartSweeper(ctx)

	app := &application{
		Config:   cfg,
		Logger:   log,
		DB:       pool,
		Redis:    rdb,
		Store:    st,
		Sessions: sessions,
		Roadmaps: roadmaps,
		Orch:     orch,
		Planner:  planner.New(ont, textPhraser, cfg.Groq.Timeout, log),
		Importer: questionpool.NewImporter(poolSvc, ont),
		Hub:      hub,
		WS:       ws.NewHandler(hub, orch, cfg.JWT.Secret, cfg.GetCORSOrigins(), log),
	}

	if err := app.serve(ctx); err != nil {
		sugar.Fatal(err)
	}
}

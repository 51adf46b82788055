package main

import (
	"flag"
	"fmt"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/CoachTrace/CoachTrace/internal/common/config"
	"github.com/CoachTrace/CoachTrace/internal/common/db"
	"github.com/CoachTrace/CoachTrace/internal/common/logger"
	"github.com/CoachTrace/CoachTrace/internal/common/metrics"
	"github.com/CoachTrace/CoachTrace/internal/common/server"
	"github.com/CoachTrace/CoachTrace/internal/common/tracing"
	"github.com/CoachTrace/CoachTrace/internal/maintenance"
	"github.com/CoachTrace/CoachTrace/internal/risk"
)

var (
	configPath = flag.String("config", "configs/maintenance-service.json", "配置文件路径")
)

func main() {
	flag.Parse()

	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	// 初始化链路追踪
	tracer, closer, err := tracing.InitTracer(
		cfg.Server.Name,
		cfg.Jaeger.Endpoint,
		cfg.Jaeger.Sampler,
	)
	if err != nil {
		log.Warnf("failed to init tracer: %v", err)
	} else {
		defer closer.Close()
	}
	_ = tracer

	// 初始化数据库
	gormDB, err := db.Open(cfg.Database)
	if err != nil {
		log.Fatalf("failed to init database: %v", err)
	}
	if err := gormDB.AutoMigrate(&maintenance.Record{}); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	// 指标
	registry := metrics.NewRegistry()
	httpMetrics, err := metrics.NewHTTPMetrics(registry, cfg.Server.Name)
	if err != nil {
		log.Fatalf("failed to init http metrics: %v", err)
	}
	riskMetrics, err := metrics.NewRiskMetrics(registry)
	if err != nil {
		log.Fatalf("failed to init risk metrics: %v", err)
	}

	// 风险模型是硬依赖，加载失败直接退出，不做降级
	forest, err := risk.LoadForest(cfg.Risk.ModelPath)
	if err != nil {
		log.Fatalf("failed to load risk model %s: %v", cfg.Risk.ModelPath, err)
	}
	riskMetrics.SetModelLoaded(true)
	log.Infof("risk model loaded: %s (%d trees)", cfg.Risk.ModelPath, len(forest.Trees))

	scorer, err := risk.NewScorer(cfg.Risk, forest, riskMetrics)
	if err != nil {
		log.Fatalf("invalid risk config: %v", err)
	}

	svc := maintenance.NewService(maintenance.NewRepo(gormDB), scorer)

	mux := http.NewServeMux()
	maintenance.NewHandler(svc, log).Register(mux)
	mux.Handle("GET /metrics", metrics.Handler(registry))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	if err := server.RunServer(cfg, log, mux, server.WithMetrics(httpMetrics)); err != nil {
		log.Fatalf("maintenance-service exited with error: %v", err)
	}
}

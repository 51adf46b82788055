package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"github.com/CoachTrace/CoachTrace/internal/common/config"
	"github.com/CoachTrace/CoachTrace/internal/common/db"
	"github.com/CoachTrace/CoachTrace/internal/common/logger"
	"github.com/CoachTrace/CoachTrace/internal/common/metrics"
	"github.com/CoachTrace/CoachTrace/internal/common/middleware"
	"github.com/CoachTrace/CoachTrace/internal/common/server"
	"github.com/CoachTrace/CoachTrace/internal/common/tracing"
	"github.com/CoachTrace/CoachTrace/internal/identity"
)

var (
	configPath = flag.String("config", "configs/identity-service.json", "配置文件路径")
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
	if err := gormDB.AutoMigrate(&identity.Account{}); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	// 指标
	registry := metrics.NewRegistry()
	httpMetrics, err := metrics.NewHTTPMetrics(registry, cfg.Server.Name)
	if err != nil {
		log.Fatalf("failed to init http metrics: %v", err)
	}

	// 登录接口限流：整个路由一个窗口，挡住口令爆破
	loginLimiter := middleware.NewSlidingWindow(time.Minute, 30)

	svc := identity.NewService(identity.NewRepo(gormDB), cfg.Auth, loginLimiter)

	created, err := svc.SeedDefaultOperator(context.Background())
	if err != nil {
		log.Fatalf("failed to seed default operator: %v", err)
	}
	if created {
		log.Warnf("seeded default operator account, change its password immediately")
	}

	mux := http.NewServeMux()
	identity.NewHandler(svc, log).Register(mux)
	mux.Handle("GET /metrics", metrics.Handler(registry))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	if err := server.RunServer(cfg, log, mux, server.WithMetrics(httpMetrics)); err != nil {
		log.Fatalf("identity-service exited with error: %v", err)
	}
}

package main

import (
	"flag"
	"fmt"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/CoachTrace/CoachTrace/internal/common/config"
	"github.com/CoachTrace/CoachTrace/internal/common/discovery"
	"github.com/CoachTrace/CoachTrace/internal/common/logger"
	"github.com/CoachTrace/CoachTrace/internal/common/metrics"
	"github.com/CoachTrace/CoachTrace/internal/common/middleware"
	"github.com/CoachTrace/CoachTrace/internal/common/server"
	"github.com/CoachTrace/CoachTrace/internal/common/tracing"
	"github.com/CoachTrace/CoachTrace/internal/gateway"
)

var (
	configPath = flag.String("config", "configs/admin-gateway.json", "配置文件路径")
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

	// Consul 不可用时退化为静态地址转发，网关本身照常起
	var resolver *discovery.Resolver
	consulClient, err := discovery.NewConsulClient(cfg.Consul.Host, cfg.Consul.Port)
	if err != nil {
		log.Warnf("consul unavailable, falling back to static addresses: %v", err)
	} else {
		resolver = discovery.NewResolver(consulClient)
	}

	// 指标
	registry := metrics.NewRegistry()
	httpMetrics, err := metrics.NewHTTPMetrics(registry, cfg.Server.Name)
	if err != nil {
		log.Fatalf("failed to init http metrics: %v", err)
	}

	client := gateway.NewClient(resolver, cfg.Gateway)
	aggregator := gateway.NewAggregator(client, cfg.Gateway)

	mux := http.NewServeMux()
	gateway.NewHandler(client, aggregator, log).Register(mux)
	mux.Handle("GET /metrics", metrics.Handler(registry))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	// 入口全局限流，按令牌桶平滑放行
	limiter := middleware.NewTokenBucket(200, 100)
	handler := middleware.RateLimitMiddleware(limiter)(mux)

	if err := server.RunServer(cfg, log, handler, server.WithMetrics(httpMetrics)); err != nil {
		log.Fatalf("admin-gateway exited with error: %v", err)
	}
}

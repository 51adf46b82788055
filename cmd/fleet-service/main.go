package main

import (
	"context"
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
	"github.com/CoachTrace/CoachTrace/internal/fleet"
	"github.com/CoachTrace/CoachTrace/internal/inspection"
)

var (
	configPath = flag.String("config", "configs/fleet-service.json", "配置文件路径")
	consulKey  = flag.String("consul-config-key", "", "从 Consul KV 读配置的 key，设置后忽略 -config")
	consulAddr = flag.String("consul-addr", "localhost", "Consul 地址（配 -consul-config-key 用）")
	consulPort = flag.Int("consul-port", 8500, "Consul 端口（配 -consul-config-key 用）")
)

func main() {
	flag.Parse()

	// .env 里的环境变量先落位（数据库口令等），没有该文件不算错
	_ = godotenv.Load()

	// 加载配置：优先 Consul KV，其次本地文件
	var (
		cfg *config.Config
		err error
	)
	if *consulKey != "" {
		cfg, err = config.LoadConfigFromConsulKV(*consulAddr, *consulPort, *consulKey)
	} else {
		cfg, err = config.LoadConfig(*configPath)
	}
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
	if err := gormDB.AutoMigrate(&fleet.Coach{}, &fleet.Train{}, &fleet.Assignment{}); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	// 指标
	registry := metrics.NewRegistry()
	httpMetrics, err := metrics.NewHTTPMetrics(registry, cfg.Server.Name)
	if err != nil {
		log.Fatalf("failed to init http metrics: %v", err)
	}
	inspMetrics, err := metrics.NewInspectionMetrics(registry)
	if err != nil {
		log.Fatalf("failed to init inspection metrics: %v", err)
	}

	// 保养判定器，阈值非法直接退出
	evaluator, err := inspection.NewEvaluator(cfg.Maintenance, inspMetrics)
	if err != nil {
		log.Fatalf("invalid maintenance thresholds: %v", err)
	}

	// 配置热加载：阈值改了不用重启。Consul KV 模式下没有本地文件可监听。
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if *consulKey == "" {
		go func() {
			err := config.Watch(ctx, *configPath, log, func(next *config.Config) {
				if err := evaluator.SetThresholds(next.Maintenance); err != nil {
					log.Errorf("rejected reloaded thresholds: %v", err)
					return
				}
				t := evaluator.Thresholds()
				log.Infof("maintenance thresholds updated: km_limit=%d days_limit=%d days_soon=%d km_soon_margin=%d",
					t.KmLimit, t.DaysLimit, t.DaysSoon, t.KmSoonMargin)
			})
			if err != nil {
				log.Warnf("config watcher stopped: %v", err)
			}
		}()
	}

	svc := fleet.NewService(fleet.NewRepo(gormDB), evaluator)

	mux := http.NewServeMux()
	fleet.NewHandler(svc, log).Register(mux)
	mux.Handle("GET /metrics", metrics.Handler(registry))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	if err := server.RunServer(cfg, log, mux, server.WithMetrics(httpMetrics)); err != nil {
		log.Fatalf("fleet-service exited with error: %v", err)
	}
}

package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/CoachTrace/CoachTrace/internal/common/config"
	"github.com/CoachTrace/CoachTrace/internal/common/discovery"
	"github.com/CoachTrace/CoachTrace/internal/common/logger"
	"github.com/CoachTrace/CoachTrace/internal/common/metrics"
)

type RunOptions struct {
	EnableReflection bool
	ShutdownTimeout  time.Duration
	Metrics          *metrics.HTTPMetrics
}

func defaultRunOptions() RunOptions {
	return RunOptions{
		EnableReflection: true,
		ShutdownTimeout:  5 * time.Second,
	}
}

// RunServer 统一的服务启动模板：
// - HTTP 业务端口：挂统一中间件链（恢复/追踪/访问日志/指标/JWT/RBAC）
// - gRPC 端口：只跑健康检查与 reflection，供 Consul 的 GRPC check 探测
// - 注册到 Consul（服务端口为 HTTP 端口，check 指向 gRPC 端口）
// - 优雅退出
func RunServer(cfg *config.Config, log logger.Logger, handler http.Handler, opts ...func(*RunOptions)) error {
	if cfg == nil {
		return fmt.Errorf("cfg is nil")
	}
	if log == nil {
		return fmt.Errorf("log is nil")
	}
	if handler == nil {
		return fmt.Errorf("handler is nil")
	}

	o := defaultRunOptions()
	for _, apply := range opts {
		if apply != nil {
			apply(&o)
		}
	}

	// 初始化 Consul 客户端（失败不阻塞服务启动）
	consulClient, err := discovery.NewConsulClient(cfg.Consul.Host, cfg.Consul.Port)
	if err != nil {
		log.Warnf("failed to connect to Consul: %v", err)
		consulClient = nil
	}

	// 构建统一的中间件链（按顺序执行）
	wrapped := Chain(
		RecoveryMiddleware(log),            // 异常恢复，避免服务崩溃
		TracingMiddleware(cfg.Server.Name), // 链路追踪
		AccessLogMiddleware(log),           // 访问日志
		MetricsMiddleware(o.Metrics),       // 请求指标
		JWTAuthMiddleware(cfg.Auth, log),   // JWT 鉴权
		RBACMiddleware(cfg.Auth),           // 角色校验
	)(handler)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:           wrapped,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// gRPC 健康检查（供 Consul 的 GRPC check 探测）
	grpcLis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen grpc port: %w", err)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	if o.EnableReflection {
		reflection.Register(grpcServer)
	}

	// 注册到 Consul（成功才 defer 注销）
	if consulClient != nil {
		serviceID := fmt.Sprintf("%s-%s", cfg.Server.Name, uuid.New().String())
		registry := discovery.NewServiceRegistry(
			consulClient,
			serviceID,
			cfg.Server.Name,
			cfg.Server.Host,
			cfg.Server.HTTPPort,
			cfg.Server.GRPCPort,
			[]string{"http"},
		)
		if err := registry.Register(); err != nil {
			log.Warnf("failed to register service to Consul: %v", err)
		} else {
			log.Infof("Service registered to Consul: %s", serviceID)
			defer func() {
				if err := registry.Deregister(); err != nil {
					log.Warnf("failed to deregister service from Consul: %v", err)
				}
			}()
		}
	}

	log.Infof("%s starting, http=%s:%d grpc=%s:%d",
		cfg.Server.Name, cfg.Server.Host, cfg.Server.HTTPPort, cfg.Server.Host, cfg.Server.GRPCPort)

	serveErr := make(chan error, 2)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- fmt.Errorf("http serve failed: %w", err)
			return
		}
		serveErr <- nil
	}()
	go func() {
		if err := grpcServer.Serve(grpcLis); err != nil {
			serveErr <- fmt.Errorf("grpc serve failed: %w", err)
			return
		}
		serveErr <- nil
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Infof("received signal %v, shutting down...", sig)
	case err := <-serveErr:
		if err != nil {
			return err
		}
		return nil
	}

	// 优雅关闭
	ctx, cancel := context.WithTimeout(context.Background(), o.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Warnf("http shutdown: %v", err)
	}

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-ctx.Done():
		log.Warn("grpc shutdown timeout, forcing stop...")
		grpcServer.Stop()
	case <-stopped:
		log.Info("server stopped gracefully")
	}

	return nil
}

// WithShutdownTimeout 修改优雅退出等待时间。
func WithShutdownTimeout(d time.Duration) func(*RunOptions) {
	return func(o *RunOptions) {
		if d > 0 {
			o.ShutdownTimeout = d
		}
	}
}

// WithReflection 控制是否启用 gRPC reflection。
func WithReflection(enable bool) func(*RunOptions) {
	return func(o *RunOptions) {
		o.EnableReflection = enable
	}
}

// WithMetrics 挂接请求指标。
func WithMetrics(m *metrics.HTTPMetrics) func(*RunOptions) {
	return func(o *RunOptions) {
		o.Metrics = m
	}
}

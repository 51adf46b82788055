package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"

	"github.com/CoachTrace/CoachTrace/internal/common/config"
	"github.com/CoachTrace/CoachTrace/internal/common/discovery"
	"github.com/CoachTrace/CoachTrace/internal/common/middleware"
)

// 下游服务名，与各服务配置里的 server.name 一致。
const (
	FleetService       = "fleet-service"
	MaintenanceService = "maintenance-service"
	IdentityService    = "identity-service"
)

// Client 网关到下游服务的 HTTP 客户端。
// 地址优先走 Consul 健康实例，Consul 不可用时退回配置里的静态地址。
// 每个下游服务一只熔断器。
type Client struct {
	resolver *discovery.Resolver
	static   map[string]string
	breakers map[string]*middleware.CircuitBreaker
	http     *http.Client
}

func NewClient(resolver *discovery.Resolver, cfg config.GatewayConfig) *Client {
	static := map[string]string{
		FleetService:       cfg.FleetService,
		MaintenanceService: cfg.MaintenanceService,
		IdentityService:    cfg.IdentityService,
	}
	breakers := make(map[string]*middleware.CircuitBreaker, len(static))
	for name := range static {
		breakers[name] = middleware.NewCircuitBreaker(name, 5, 15*time.Second)
	}
	return &Client{
		resolver: resolver,
		static:   static,
		breakers: breakers,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

// addr 解析下游地址。Consul 解析失败时退回静态配置。
func (c *Client) addr(service string) (string, error) {
	if c.resolver != nil {
		if addr, err := c.resolver.Resolve(service); err == nil {
			return addr, nil
		}
	}
	if addr := strings.TrimSpace(c.static[service]); addr != "" {
		return addr, nil
	}
	return "", fmt.Errorf("no address for service %s", service)
}

func (c *Client) breaker(service string) *middleware.CircuitBreaker {
	return c.breakers[service]
}

// injectTrace 把当前 span 注入到下游请求头。
func injectTrace(req *http.Request) {
	span := opentracing.SpanFromContext(req.Context())
	if span == nil {
		return
	}
	ext.SpanKindRPCClient.Set(span)
	ext.HTTPMethod.Set(span, req.Method)
	ext.HTTPUrl.Set(span, req.URL.String())
	_ = opentracing.GlobalTracer().Inject(
		span.Context(),
		opentracing.HTTPHeaders,
		opentracing.HTTPHeadersCarrier(req.Header),
	)
}

// GetJSON 向下游服务发 GET 并解码 JSON 响应，经过该服务的熔断器。
// authz 非空时透传 Authorization 头，下游各自完成鉴权。
func (c *Client) GetJSON(ctx context.Context, service, path, authz string, out any) error {
	addr, err := c.addr(service)
	if err != nil {
		return err
	}

	return c.breaker(service).Call(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+path, nil)
		if err != nil {
			return err
		}
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		injectTrace(req)

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("call %s%s: %w", service, path, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("call %s%s: status %d: %s", service, path, resp.StatusCode, strings.TrimSpace(string(body)))
		}
		if out == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
}

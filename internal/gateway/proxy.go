package gateway

import (
	"errors"
	"io"
	"net/http"

	"github.com/CoachTrace/CoachTrace/internal/common/logger"
	"github.com/CoachTrace/CoachTrace/internal/common/server"
)

// 透传到下游的响应头。CSV 导出靠 Content-Disposition。
var forwardedHeaders = []string{"Content-Type", "Content-Disposition"}

// 响应已经写回但下游报 5xx，只用于驱动熔断计数
var errDownstream5xx = errors.New("downstream returned 5xx")

// Proxy 返回把请求原样转给下游服务的 http.Handler。
// 方法、路径、查询串、请求体和 Authorization 都透传，响应原样写回。
func (c *Client) Proxy(service string, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr, err := c.addr(service)
		if err != nil {
			log.WithField("service", service).Warnf("resolve failed: %v", err)
			server.WriteError(w, http.StatusBadGateway, "service unavailable")
			return
		}

		url := "http://" + addr + r.URL.Path
		if r.URL.RawQuery != "" {
			url += "?" + r.URL.RawQuery
		}

		err = c.breaker(service).Call(r.Context(), func() error {
			req, err := http.NewRequestWithContext(r.Context(), r.Method, url, r.Body)
			if err != nil {
				return err
			}
			if ct := r.Header.Get("Content-Type"); ct != "" {
				req.Header.Set("Content-Type", ct)
			}
			if authz := r.Header.Get("Authorization"); authz != "" {
				req.Header.Set("Authorization", authz)
			}
			injectTrace(req)

			resp, err := c.http.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			for _, h := range forwardedHeaders {
				if v := resp.Header.Get(h); v != "" {
					w.Header().Set(h, v)
				}
			}
			w.WriteHeader(resp.StatusCode)
			_, _ = io.Copy(w, resp.Body)

			// 5xx 计入熔断，4xx 是调用方问题不计
			if resp.StatusCode >= 500 {
				return errDownstream5xx
			}
			return nil
		})
		if err != nil && !errors.Is(err, errDownstream5xx) {
			log.WithField("service", service).Warnf("proxy failed: %v", err)
			server.WriteError(w, http.StatusBadGateway, "service unavailable")
		}
	})
}

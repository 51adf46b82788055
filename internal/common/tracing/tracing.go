package tracing

import (
	"fmt"
	"io"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
)

// InitTracer 初始化 Jaeger tracer 并设为全局。
// endpoint 写 host:port 走 agent（UDP），写 http(s):// 开头的 URL 走 collector。
// sampler 为概率采样率，>=1 时全采。
func InitTracer(serviceName, endpoint string, sampler float64) (opentracing.Tracer, io.Closer, error) {
	if strings.TrimSpace(serviceName) == "" {
		return nil, nil, fmt.Errorf("service name is empty")
	}

	samplerCfg := &jaegercfg.SamplerConfig{
		Type:  jaeger.SamplerTypeProbabilistic,
		Param: sampler,
	}
	if sampler >= 1 {
		samplerCfg.Type = jaeger.SamplerTypeConst
		samplerCfg.Param = 1
	}

	reporterCfg := &jaegercfg.ReporterConfig{
		LogSpans: false,
	}
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		reporterCfg.CollectorEndpoint = endpoint
	} else {
		reporterCfg.LocalAgentHostPort = endpoint
	}

	cfg := &jaegercfg.Configuration{
		ServiceName: serviceName,
		Sampler:     samplerCfg,
		Reporter:    reporterCfg,
	}

	tracer, closer, err := cfg.NewTracer(jaegercfg.Logger(jaeger.NullLogger))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init jaeger tracer: %w", err)
	}

	opentracing.SetGlobalTracer(tracer)
	return tracer, closer, nil
}

package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/CoachTrace/CoachTrace/internal/common/config"
	"github.com/CoachTrace/CoachTrace/internal/inspection"
	"github.com/CoachTrace/CoachTrace/internal/maintenance"
)

const dashboardCacheKey = "dashboard"

// DashboardCounts 看板头部的统计数字。
type DashboardCounts struct {
	Coaches   int64 `json:"coaches"`
	Trains    int64 `json:"trains"`
	Engineers int64 `json:"engineers"`
	Records   int64 `json:"records"`
}

// Dashboard 看板聚合结果。
// Alerts 截断到展示上限，完整告警走 /api/v1/alerts。
type Dashboard struct {
	Counts        DashboardCounts          `json:"counts"`
	Alerts        []inspection.Alert       `json:"alerts"`
	AlertsTotal   int                      `json:"alerts_total"`
	RecentRecords []maintenance.RecordView `json:"recent_records"`
	GeneratedAt   time.Time                `json:"generated_at"`
}

// Aggregator 拉取三个下游服务拼出看板，带短 TTL 缓存。
type Aggregator struct {
	client *Client
	cache  *cache.Cache
	cfg    config.GatewayConfig
}

func NewAggregator(client *Client, cfg config.GatewayConfig) *Aggregator {
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return &Aggregator{
		client: client,
		cache:  cache.New(ttl, ttl*2),
		cfg:    cfg,
	}
}

// Dashboard 返回看板数据。authz 透传给下游完成鉴权。
func (a *Aggregator) Dashboard(ctx context.Context, authz string) (*Dashboard, error) {
	if cached, found := a.cache.Get(dashboardCacheKey); found {
		if d, ok := cached.(*Dashboard); ok {
			return d, nil
		}
	}

	d, err := a.fetch(ctx, authz)
	if err != nil {
		return nil, err
	}
	a.cache.Set(dashboardCacheKey, d, cache.DefaultExpiration)
	return d, nil
}

func (a *Aggregator) fetch(ctx context.Context, authz string) (*Dashboard, error) {
	var fleetCounts struct {
		Coaches int64 `json:"coaches"`
		Trains  int64 `json:"trains"`
	}
	if err := a.client.GetJSON(ctx, FleetService, "/api/v1/counts", authz, &fleetCounts); err != nil {
		return nil, fmt.Errorf("fleet counts: %w", err)
	}

	var identityCounts struct {
		Engineers int64 `json:"engineers"`
	}
	if err := a.client.GetJSON(ctx, IdentityService, "/api/v1/counts", authz, &identityCounts); err != nil {
		return nil, fmt.Errorf("identity counts: %w", err)
	}

	var maintCounts struct {
		Records int64 `json:"records"`
	}
	if err := a.client.GetJSON(ctx, MaintenanceService, "/api/v1/counts", authz, &maintCounts); err != nil {
		return nil, fmt.Errorf("maintenance counts: %w", err)
	}

	var alerts struct {
		Alerts []inspection.Alert `json:"alerts"`
		Total  int                `json:"total"`
	}
	if err := a.client.GetJSON(ctx, FleetService, "/api/v1/alerts", authz, &alerts); err != nil {
		return nil, fmt.Errorf("alerts: %w", err)
	}

	recentPath := fmt.Sprintf("/api/v1/records/recent?limit=%d", a.recentLimit())
	var recent struct {
		Records []maintenance.RecordView `json:"records"`
	}
	if err := a.client.GetJSON(ctx, MaintenanceService, recentPath, authz, &recent); err != nil {
		return nil, fmt.Errorf("recent records: %w", err)
	}

	display := alerts.Alerts
	if limit := a.alertLimit(); len(display) > limit {
		display = display[:limit]
	}

	return &Dashboard{
		Counts: DashboardCounts{
			Coaches:   fleetCounts.Coaches,
			Trains:    fleetCounts.Trains,
			Engineers: identityCounts.Engineers,
			Records:   maintCounts.Records,
		},
		Alerts:        display,
		AlertsTotal:   alerts.Total,
		RecentRecords: recent.Records,
		GeneratedAt:   time.Now(),
	}, nil
}

func (a *Aggregator) alertLimit() int {
	if a.cfg.AlertDisplayLimit > 0 {
		return a.cfg.AlertDisplayLimit
	}
	return 30
}

func (a *Aggregator) recentLimit() int {
	if a.cfg.RecentLogLimit > 0 {
		return a.cfg.RecentLogLimit
	}
	return 20
}

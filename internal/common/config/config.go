package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Config 应用配置
type Config struct {
	Server      ServerConfig      `json:"server"`
	Database    DatabaseConfig    `json:"database"`
	Consul      ConsulConfig      `json:"consul"`
	Jaeger      JaegerConfig      `json:"jaeger"`
	Log         LogConfig         `json:"log"`
	Auth        AuthConfig        `json:"auth"`
	Maintenance MaintenanceConfig `json:"maintenance"`
	Risk        RiskConfig        `json:"risk"`
	Gateway     GatewayConfig     `json:"gateway"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Name     string `json:"name"`      // 服务名称
	Host     string `json:"host"`      // 服务地址
	Port     int    `json:"port"`      // 服务端口
	GRPCPort int    `json:"grpc_port"` // gRPC健康检查端口
	HTTPPort int    `json:"http_port"` // HTTP端口
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver   string `json:"driver"`   // mysql 或 sqlite
	Host     string `json:"host"`     // 数据库地址
	Port     int    `json:"port"`     // 数据库端口
	User     string `json:"user"`     // 用户名
	Password string `json:"password"` // 密码
	Database string `json:"database"` // 数据库名（sqlite 时为文件路径）
	MaxIdle  int    `json:"max_idle"` // 最大空闲连接
	MaxOpen  int    `json:"max_open"` // 最大打开连接
}

// ConsulConfig Consul配置
type ConsulConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// JaegerConfig Jaeger配置
type JaegerConfig struct {
	Endpoint string  `json:"endpoint"`
	Sampler  float64 `json:"sampler"` // 采样率 0.0-1.0
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
	Output string `json:"output"` // stdout, file
	Path   string `json:"path"`   // 日志文件路径
}

// AuthConfig 认证配置
type AuthConfig struct {
	Enabled       bool                `json:"enabled"`
	JWTSecret     string              `json:"jwt_secret"`
	Issuer        string              `json:"issuer"`
	Audience      string              `json:"audience"`
	PublicMethods []string            `json:"public_methods"` // 免认证路径
	RBAC          map[string][]string `json:"rbac"`           // 路径 -> 允许的角色
}

// MaintenanceConfig 保养判定阈值
//
// 四个阈值互相独立，均可单独调整，不从彼此推导。
type MaintenanceConfig struct {
	KmLimit      int64 `json:"km_limit"`       // 超过即逾期的运行公里数
	DaysLimit    int   `json:"days_limit"`     // 超过即逾期的天数
	DaysSoon     int   `json:"days_soon"`      // 进入"即将到期"的天数
	KmSoonMargin int64 `json:"km_soon_margin"` // 距 KmLimit 多少公里进入"即将到期"
}

// RiskConfig 风险评分配置
type RiskConfig struct {
	KmNorm    float64 `json:"km_norm"`    // 公里数归一化基准
	ModelPath string  `json:"model_path"` // 分类模型文件路径
}

// GatewayConfig 网关配置
//
// 三个下游地址填静态 host:port 时作为 Consul 解析失败的兜底。
type GatewayConfig struct {
	FleetService       string `json:"fleet_service"`       // fleet-service 静态地址兜底
	MaintenanceService string `json:"maintenance_service"` // maintenance-service 静态地址兜底
	IdentityService    string `json:"identity_service"`    // identity-service 静态地址兜底
	CacheTTLSeconds    int    `json:"cache_ttl_seconds"`   // 仪表盘聚合缓存TTL
	AlertDisplayLimit  int    `json:"alert_display_limit"` // 仪表盘告警展示上限
	RecentLogLimit     int    `json:"recent_log_limit"`    // 仪表盘最近记录条数
}

var (
	globalConfig *Config
	configOnce   sync.Once
)

// LoadConfig 加载配置
func LoadConfig(configPath string) (*Config, error) {
	var err error
	configOnce.Do(func() {
		// 如果配置文件不存在，使用默认配置
		if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
			logrus.Warnf("Config file not found: %s, using default config", configPath)
			globalConfig = defaultConfig()
			return
		}

		cfg, readErr := readConfigFile(configPath)
		if readErr != nil {
			err = readErr
			return
		}
		globalConfig = cfg
	})

	if err != nil {
		return nil, err
	}

	return globalConfig, nil
}

// readConfigFile 读取并解析配置文件，每次调用都重新读盘
func readConfigFile(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// GetConfig 获取全局配置
func GetConfig() *Config {
	if globalConfig == nil {
		return defaultConfig()
	}
	return globalConfig
}

// Validate 校验配置，阈值类错误在启动时暴露，不留到请求路径
func (c *Config) Validate() error {
	if c.Maintenance.KmLimit <= 0 {
		return fmt.Errorf("maintenance.km_limit must be positive, got %d", c.Maintenance.KmLimit)
	}
	if c.Maintenance.DaysLimit <= 0 {
		return fmt.Errorf("maintenance.days_limit must be positive, got %d", c.Maintenance.DaysLimit)
	}
	if c.Maintenance.DaysSoon <= 0 || c.Maintenance.DaysSoon > c.Maintenance.DaysLimit {
		return fmt.Errorf("maintenance.days_soon must be in (0, days_limit], got %d", c.Maintenance.DaysSoon)
	}
	if c.Maintenance.KmSoonMargin < 0 || c.Maintenance.KmSoonMargin > c.Maintenance.KmLimit {
		return fmt.Errorf("maintenance.km_soon_margin must be in [0, km_limit], got %d", c.Maintenance.KmSoonMargin)
	}
	if c.Risk.KmNorm <= 0 {
		return fmt.Errorf("risk.km_norm must be positive, got %v", c.Risk.KmNorm)
	}
	return nil
}

// fillDefaults 为省略的阈值段补默认值，显式写入的非法值交给 Validate 拒绝
func fillDefaults(cfg *Config) {
	def := defaultConfig()
	if cfg.Maintenance == (MaintenanceConfig{}) {
		cfg.Maintenance = def.Maintenance
	}
	if cfg.Risk.KmNorm == 0 {
		cfg.Risk.KmNorm = def.Risk.KmNorm
	}
	if cfg.Gateway.CacheTTLSeconds == 0 {
		cfg.Gateway.CacheTTLSeconds = def.Gateway.CacheTTLSeconds
	}
	if cfg.Gateway.AlertDisplayLimit == 0 {
		cfg.Gateway.AlertDisplayLimit = def.Gateway.AlertDisplayLimit
	}
	if cfg.Gateway.RecentLogLimit == 0 {
		cfg.Gateway.RecentLogLimit = def.Gateway.RecentLogLimit
	}
}

// defaultConfig 默认配置（开发环境）
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name:     "default-service",
			Host:     "0.0.0.0",
			Port:     8080,
			GRPCPort: 50051,
			HTTPPort: 8080,
		},
		Database: DatabaseConfig{
			Driver:   "mysql",
			Host:     "localhost",
			Port:     3306,
			User:     "root",
			Password: "root",
			Database: "coachtrace",
			MaxIdle:  10,
			MaxOpen:  100,
		},
		Consul: ConsulConfig{
			Host: "localhost",
			Port: 8500,
		},
		Jaeger: JaegerConfig{
			Endpoint: "http://localhost:14268/api/traces",
			Sampler:  1.0,
		},
		Log: LogConfig{
			Level:  "debug",
			Format: "text",
			Output: "stdout",
			Path:   "logs/app.log",
		},
		Auth: AuthConfig{
			Enabled:   false,
			JWTSecret: "",
			Issuer:    "coachtrace",
			Audience:  "coachtrace-admin",
		},
		Maintenance: MaintenanceConfig{
			KmLimit:      5000,
			DaysLimit:    180,
			DaysSoon:     150,
			KmSoonMargin: 500,
		},
		Risk: RiskConfig{
			KmNorm:    33000,
			ModelPath: "models/coach_risk_forest.json",
		},
		Gateway: GatewayConfig{
			FleetService:       "localhost:8081",
			MaintenanceService: "localhost:8082",
			IdentityService:    "localhost:8083",
			CacheTTLSeconds:    15,
			AlertDisplayLimit:  30,
			RecentLogLimit:     20,
		},
	}
}

package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hashicorp/consul/api"
)

// LoadConfigFromConsulKV 从 Consul KV 取 JSON 配置。
// 拿到的内容走和本地文件一样的补默认值与校验流程，
// 动态 watch 由调用方自行决定要不要做。
func LoadConfigFromConsulKV(consulHost string, consulPort int, key string) (*Config, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("consul kv key is empty")
	}

	client, err := api.NewClient(&api.Config{
		Address: fmt.Sprintf("%s:%d", consulHost, consulPort),
	})
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}

	pair, _, err := client.KV().Get(key, nil)
	if err != nil {
		return nil, fmt.Errorf("consul kv get %s: %w", key, err)
	}
	if pair == nil || len(pair.Value) == 0 {
		return nil, fmt.Errorf("consul kv %s: empty or not found", key)
	}

	cfg := &Config{}
	if err := json.Unmarshal(pair.Value, cfg); err != nil {
		return nil, fmt.Errorf("consul kv %s: %w", key, err)
	}
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("consul kv %s: %w", key, err)
	}
	return cfg, nil
}

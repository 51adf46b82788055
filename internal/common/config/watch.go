package config

import (
	"context"

	"github.com/fsnotify/fsnotify"

	"github.com/CoachTrace/CoachTrace/internal/common/logger"
)

// Watch 监听配置文件变更，每次写入后重新加载并回调 onChange。
//
// 约定：
// - 只响应 Write/Create 事件（编辑器原子保存走 rename+create）
// - 重载失败只记日志，旧配置继续生效，不触发 onChange
// - ctx 取消后返回
//
// 保养阈值等可调参数借此做到不重启生效。
func Watch(ctx context.Context, configPath string, log logger.Logger, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(configPath); err != nil {
		return err
	}

	log.Infof("Watching config file: %s", configPath)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := readConfigFile(configPath)
			if err != nil {
				log.Errorf("Config reload failed, keeping previous config: %v", err)
				continue
			}

			log.Infof("Config reloaded: %s", configPath)
			onChange(cfg)

			// 原子保存会替换 inode，重新挂一次 watch
			_ = watcher.Add(configPath)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Errorf("Config watcher error: %v", err)
		}
	}
}

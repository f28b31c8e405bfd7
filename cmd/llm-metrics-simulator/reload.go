package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// reloadConfig re-reads the config file and applies services, channels,
// rate and mode to the running simulator. Listener and logging settings
// only take effect on restart.
func (s *server) reloadConfig() error {
	current := s.currentConfig()
	cfg, err := loadConfig(current.ConfigFile, s.overrides)
	if err == nil {
		cfg.Dump = current.Dump
		err = cfg.Validate()
	}
	if err != nil {
		s.metrics.configReloads.WithLabelValues("error").Inc()
		return fmt.Errorf("reload config: %w", err)
	}

	settings := cfg.settings()
	previous := s.sim.Mode()
	if s.scheduler != nil {
		settings, err = s.scheduler.reconfigure(settings)
	} else {
		err = s.sim.Reconfigure(settings)
	}
	if err != nil {
		s.metrics.configReloads.WithLabelValues("error").Inc()
		return fmt.Errorf("reload config: %w", err)
	}
	if settings.Mode != previous {
		s.recordModeSwitch(settings.Mode)
	}

	s.configLock.Lock()
	s.config = cfg
	s.configLock.Unlock()

	s.metrics.configReloads.WithLabelValues("success").Inc()
	s.logger.Info("config reloaded",
		"file", cfg.ConfigFile,
		"mode", settings.Mode,
		"services", settings.Services,
		"channels", settings.Channels,
		"base_qps", settings.BaseQPS,
	)
	return nil
}

// watchConfig reloads the config file whenever it is written or replaced.
// The directory is watched because editors often swap the file.
func (s *server) watchConfig(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("config watcher: %w", err)
	}
	target := filepath.Clean(path)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if err := s.reloadConfig(); err != nil {
					s.logger.Warn("config reload failed", "error", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("config watcher error", "error", err)
			}
		}
	}()
	return nil
}

package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-studio/studio"
)

// loadMix reads a mix file in any format viper understands.
func loadMix(path string) (studio.Mix, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return studio.Mix{}, fmt.Errorf("read mix %s: %w", path, err)
	}
	var m studio.Mix
	if err := v.Unmarshal(&m); err != nil {
		return studio.Mix{}, fmt.Errorf("parse mix %s: %w", path, err)
	}
	return m, nil
}

func applyMixFile(s *studio.Studio, path string) error {
	m, err := loadMix(path)
	if err != nil {
		return err
	}
	if err := s.ApplyMix(m); err != nil {
		log.Warn("mix applied partially", zap.String("file", path), zap.Error(err))
		return nil
	}
	log.Info("mix applied", zap.String("file", path), zap.Int("tracks", len(m.Tracks)))
	return nil
}

// watchMix re-applies the mix file whenever it is written until ctx ends.
// The directory is watched so editors that replace the file are seen.
func watchMix(ctx context.Context, s *studio.Studio, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				log.Debug("mix file changed", zap.String("op", ev.Op.String()))
				if err := applyMixFile(s, abs); err != nil {
					log.Warn("mix reload failed", zap.Error(err))
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Debug("watch error", zap.Error(err))
			}
		}
	}()
	log.Info("watching mix file", zap.String("file", abs))
	return nil
}

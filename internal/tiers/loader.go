package tiers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/marcalaing/gpt-rank-sub000/internal/shared/telemetry"
)

// Load reads a YAML tier table into the registry. The file maps tier name to
// limits:
//
//	starter:
//	  projectLimit: 3
//	  promptsPerProject: 10
//	  runsPerMonth: 300
func (r *Registry) Load(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read tiers file: %w", err)
	}
	var parsed map[string]Limits
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("parse tiers file: %w", err)
	}
	r.Replace(parsed)
	return nil
}

// Watch reloads the registry whenever the tiers file changes. It blocks until
// the context is cancelled. The parent directory is watched because editors
// replace files instead of writing in place.
func (r *Registry) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if err := r.Load(path); err != nil {
					telemetry.Error("tiers.reload_failed", map[string]any{
						"path":  path,
						"error": err.Error(),
					})
					continue
				}
				telemetry.Info("tiers.reloaded", map[string]any{"path": path})
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			telemetry.Error("tiers.watch_error", map[string]any{"error": err.Error()})
		}
	}
}

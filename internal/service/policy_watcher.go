package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// PolicyWatcher recarga la política del help bot cuando cambia el archivo YAML.
// Un archivo inválido deja la política anterior en uso.
type PolicyWatcher struct {
	path     string
	advisor  *Advisor
	logger   *zap.Logger
	debounce time.Duration
}

func NewPolicyWatcher(path string, advisor *Advisor, logger *zap.Logger) *PolicyWatcher {
	return &PolicyWatcher{
		path:     filepath.Clean(path),
		advisor:  advisor,
		logger:   logger,
		debounce: 200 * time.Millisecond,
	}
}

// Run bloquea hasta que se cancela ctx. Se observa el directorio y no el archivo,
// así los editores que guardan con rename no cortan la vigilancia.
func (w *PolicyWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create policy watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch policy dir: %w", err)
	}
	w.logger.Info("watching advisory policy", zap.String("path", w.path))

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("advisory policy watcher error", zap.Error(err))

		case <-pending:
			pending = nil
			w.reload()
		}
	}
}

func (w *PolicyWatcher) reload() {
	policy, err := LoadAdvisoryPolicy(w.path)
	if err != nil {
		w.logger.Warn("advisory policy reload failed, keeping previous", zap.Error(err))
		return
	}
	w.advisor.SetPolicy(policy)
	w.logger.Info("advisory policy reloaded",
		zap.String("path", w.path),
		zap.Int("countries", len(policy.Countries)),
	)
}

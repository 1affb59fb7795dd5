package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/fedro86/almost-a-cms/internal/filestore"
	"github.com/fedro86/almost-a-cms/internal/generator"
	"github.com/fedro86/almost-a-cms/internal/model"
	"github.com/fedro86/almost-a-cms/internal/pkg/fileutil"
)

const DefaultDelay = 250 * time.Millisecond

type Regenerator interface {
	Generate(ctx context.Context) (*generator.Result, error)
}

// Watcher regenerates the index when documents change on disk, e.g. when
// they are edited by hand or pulled in by git. Bursts of events collapse
// into a single regeneration after the delay.
type Watcher struct {
	dir         string
	regen       Regenerator
	invalidator filestore.Invalidator
	delay       time.Duration
	fsw         *fsnotify.Watcher
}

type Option func(w *Watcher)

func WithInvalidator(inv filestore.Invalidator) Option {
	return func(w *Watcher) {
		w.invalidator = inv
	}
}

func WithDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

func New(dir string, regen Regenerator, opts ...Option) *Watcher {
	w := &Watcher{dir: dir, regen: regen, delay: DefaultDelay}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching the directory. Events are processed by Run.
func (w *Watcher) Start() error {
	if w.fsw != nil {
		return fmt.Errorf("watcher already started")
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.fsw = fsw
	return nil
}

func (w *Watcher) Run(ctx context.Context) error {
	if w.fsw == nil {
		return fmt.Errorf("watcher not started")
	}
	defer w.fsw.Close()
	logger := logutil.GetLogger(ctx).With(zap.String("dir", w.dir))
	logger.Info("watching data dir")

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			name, ok := documentName(event)
			if !ok {
				continue
			}
			logger.Debug("document changed on disk", zap.String("name", name), zap.String("op", event.Op.String()))
			if w.invalidator != nil {
				w.invalidator.Invalidate(name)
			}
			if timer == nil {
				timer = time.NewTimer(w.delay)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.delay)
			}
			fire = timer.C
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", zap.Error(err))
		case <-fire:
			fire = nil
			if _, err := w.regen.Generate(ctx); err != nil {
				logger.Error("regeneration after file change failed", zap.Error(err))
			}
		}
	}
}

func documentName(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return "", false
	}
	if fileutil.IsTempFile(event.Name) {
		return "", false
	}
	base := filepath.Base(event.Name)
	if !strings.HasSuffix(base, ".json") {
		return "", false
	}
	name := strings.TrimSuffix(base, ".json")
	if model.ValidateName(name) != nil {
		return "", false
	}
	return name, true
}

package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dmaring/codeatlas-mcp/pkg/types"
)

// EventKind classifies a filesystem change for the consumer
type EventKind int

const (
	// EventChange covers creates and writes; the file needs (re)analysis
	EventChange EventKind = iota
	// EventDelete covers removes and renames; the file leaves the index
	EventDelete
)

func (k EventKind) String() string {
	switch k {
	case EventChange:
		return "change"
	case EventDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Event is one typed filesystem change
type Event struct {
	Kind EventKind
	Path string
}

// Processor consumes debounced change and delete events. TrackedFiles
// lists everything currently indexed so directory deletes can be fanned
// out to the files beneath them.
type Processor interface {
	ProcessFile(ctx context.Context, path string) (*types.FileAnalysis, error)
	RemoveFile(ctx context.Context, path string) error
	TrackedFiles() []string
}

const (
	// DefaultDebounce is the quiet period before a changed file is dispatched
	DefaultDebounce = 2 * time.Second
	// DefaultSweepInterval is how often pending changes are checked for quiescence
	DefaultSweepInterval = time.Second
	// defaultQueueSize bounds the producer/consumer event channel
	defaultQueueSize = 256
)

// Config tunes the watcher; zero values take the defaults
type Config struct {
	Debounce      time.Duration
	SweepInterval time.Duration
	QueueSize     int
	// IgnoreDir reports directories to skip when (re)watching; may be nil
	IgnoreDir func(name string) bool
}

// Watcher turns raw fsnotify events into debounced pipeline dispatches.
//
// A producer goroutine translates fsnotify events into typed events on a
// bounded channel. The consumer goroutine owns all debounce state: a change
// marks the path pending, a sweep tick dispatches paths quiescent for the
// debounce window exactly once, and deletes dispatch immediately.
type Watcher struct {
	fsw       *fsnotify.Watcher
	processor Processor
	cfg       Config

	events chan Event
	wg     sync.WaitGroup
}

// New creates a watcher over the processor
func New(processor Processor, cfg Config) (*Watcher, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}

	return &Watcher{
		fsw:       fsw,
		processor: processor,
		cfg:       cfg,
		events:    make(chan Event, cfg.QueueSize),
	}, nil
}

// Start watches root recursively and runs the producer and consumer until
// ctx is cancelled.
func (w *Watcher) Start(ctx context.Context, root string) error {
	if err := w.addRecursive(root); err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}

	w.wg.Add(2)
	go w.produce(ctx)
	go w.consume(ctx)
	return nil
}

// Close stops the fsnotify watcher and waits for both goroutines. The
// context passed to Start must be cancelled first or Close blocks.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

// addRecursive watches dir and every non-ignored subdirectory
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.cfg.IgnoreDir != nil && w.cfg.IgnoreDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			log.Printf("watch %s: %v", path, err)
		}
		return nil
	})
}

// produce translates fsnotify events into typed events on the bounded channel
func (w *Watcher) produce(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			for _, typed := range w.translate(ev) {
				select {
				case <-ctx.Done():
					return
				case w.events <- typed:
				}
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("watch error: %v", err)
		}
	}
}

// translate maps one fsnotify event onto zero or more typed events and
// extends the watch into newly created directories.
func (w *Watcher) translate(ev fsnotify.Event) []Event {
	var out []Event

	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if w.cfg.IgnoreDir == nil || !w.cfg.IgnoreDir(filepath.Base(ev.Name)) {
				if err := w.addRecursive(ev.Name); err != nil {
					log.Printf("watch new dir %s: %v", ev.Name, err)
				}
			}
			return nil
		}
	}

	if ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write) {
		out = append(out, Event{Kind: EventChange, Path: ev.Name})
	}
	if ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename) {
		out = append(out, Event{Kind: EventDelete, Path: ev.Name})
	}
	return out
}

// consume owns the pending map. No other goroutine touches debounce state.
func (w *Watcher) consume(ctx context.Context) {
	defer w.wg.Done()

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.events:
			if !ok {
				return
			}
			switch ev.Kind {
			case EventChange:
				pending[ev.Path] = time.Now()
			case EventDelete:
				delete(pending, ev.Path)
				prefix := ev.Path + string(filepath.Separator)
				for p := range pending {
					if strings.HasPrefix(p, prefix) {
						delete(pending, p)
					}
				}
				w.removePath(ctx, ev.Path)
			}
		case <-ticker.C:
			now := time.Now()
			for path, last := range pending {
				if now.Sub(last) < w.cfg.Debounce {
					continue
				}
				delete(pending, path)
				if _, err := w.processor.ProcessFile(ctx, path); err != nil {
					log.Printf("process %s: %v", path, err)
				}
			}
		}
	}
}

// removePath drops the deleted path and, when it was a directory, every
// tracked file beneath it. The path is gone so it cannot be statted to
// tell the two apart.
func (w *Watcher) removePath(ctx context.Context, path string) {
	if err := w.processor.RemoveFile(ctx, path); err != nil {
		log.Printf("remove %s: %v", path, err)
	}

	prefix := path + string(filepath.Separator)
	for _, tracked := range w.processor.TrackedFiles() {
		if !strings.HasPrefix(tracked, prefix) {
			continue
		}
		if err := w.processor.RemoveFile(ctx, tracked); err != nil {
			log.Printf("remove %s: %v", tracked, err)
		}
	}
}

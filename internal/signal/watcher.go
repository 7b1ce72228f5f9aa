package signal

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/jpatrickfarrell/jat/internal/logging"
)

// Watcher tails a JSONL signal file and feeds each appended line into the
// store. Agent hooks append one JSON signal object per line; the watcher
// reacts to write events instead of polling.
type Watcher struct {
	path   string
	store  *Store
	fsw    *fsnotify.Watcher
	cancel context.CancelFunc
	done   chan struct{}
	log    interface {
		Debugf(format string, args ...interface{})
		Warnf(format string, args ...interface{})
	}
}

// NewWatcher starts tailing path into store. The file does not need to
// exist yet; signals are picked up once it appears. Existing content is
// skipped so a restart does not replay old signals (the journal covers
// persistence).
func NewWatcher(path string, store *Store) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: fsnotify loses file watches when editors or
	// log rotation replace the file.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		path:   path,
		store:  store,
		fsw:    fsw,
		cancel: cancel,
		done:   make(chan struct{}),
		log:    logging.NewLogger("signal-watcher"),
	}
	go w.run(ctx)
	return w, nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	// Start at the current end of file.
	offset := int64(0)
	if info, err := os.Stat(w.path); err == nil {
		offset = info.Size()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			offset = w.consume(offset)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warnf("watch error: %v", err)
		}
	}
}

// consume reads new lines from the current offset and ingests them.
// Returns the new offset. Truncation resets the offset to zero.
func (w *Watcher) consume(offset int64) int64 {
	f, err := os.Open(w.path)
	if err != nil {
		return offset
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.Size() < offset {
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return offset
	}

	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			// A partial line without a trailing newline is left for the
			// next write event.
			break
		}
		offset += int64(len(line))
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sig := ParseLine(line)
		if sig == nil {
			w.log.Debugf("skipping malformed signal line")
			continue
		}
		if accepted, err := w.store.Ingest(*sig); err != nil {
			w.log.Warnf("rejected signal from file: %v", err)
		} else if !accepted {
			w.log.Debugf("discarded stale signal for %s", sig.Session)
		}
	}
	return offset
}

// Close stops the watcher and waits for the tail goroutine to exit.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.fsw.Close()
	<-w.done
	return err
}

package ingest

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/penwyp/go-dreyevr-parser/internal/util"
)

// DefaultSettle is how long a file must stay quiet before a change is reported.
const DefaultSettle = 500 * time.Millisecond

// ChangeEvent reports that the watched recording was written or replaced.
type ChangeEvent struct {
	Path      string
	Operation string
}

// FileWatcher reports changes to one recording. It watches the parent
// directory so editors and simulators that replace the file are still seen.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	target  string
	settle  time.Duration
	events  chan ChangeEvent
	done    chan struct{}
	once    sync.Once
}

func NewFileWatcher(path string, settle time.Duration) (*FileWatcher, error) {
	target, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return nil, err
	}

	fw := &FileWatcher{
		watcher: watcher,
		target:  target,
		settle:  settle,
		events:  make(chan ChangeEvent, 1),
		done:    make(chan struct{}),
	}

	go fw.processEvents()

	return fw, nil
}

func (fw *FileWatcher) processEvents() {
	defer close(fw.events)

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending ChangeEvent
	)

	for {
		select {
		case <-fw.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != fw.target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			pending = ChangeEvent{Path: fw.target, Operation: event.Op.String()}
			if timer == nil {
				timer = time.NewTimer(fw.settle)
			} else {
				timer.Reset(fw.settle)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			select {
			case fw.events <- pending:
			default:
				// A change is already queued; the consumer will re-read the file anyway.
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			util.LogError("File monitoring error: " + err.Error())
		}
	}
}

// Events delivers at most one queued change at a time. It is closed by Close.
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

func (fw *FileWatcher) Close() error {
	var err error
	fw.once.Do(func() {
		close(fw.done)
		err = fw.watcher.Close()
	})
	return err
}

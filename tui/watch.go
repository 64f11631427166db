package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/simdeck/simdeck/treeview"
)

// watchDebounce batches the burst of write events editors produce when
// saving a file.
const watchDebounce = 100 * time.Millisecond

// ReloadMsg carries a re-read of the watched file: the freshly parsed value,
// or the error that prevented parsing it.
type ReloadMsg struct {
	Value any
	Err   error
}

// Watcher re-reads a JSON file whenever it changes on disk. The parent
// directory is watched rather than the file itself, since editors commonly
// replace files by rename, which drops a watch on the inode.
type Watcher struct {
	path string
	fsw  *fsnotify.Watcher
	ch   chan ReloadMsg
	done chan struct{}
}

// WatchFile starts watching path for changes.
func WatchFile(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("error resolving watch path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating file watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("error watching %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path: abs,
		fsw:  fsw,
		ch:   make(chan ReloadMsg, 1),
		done: make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Reloads returns the channel re-reads arrive on.
func (w *Watcher) Reloads() <-chan ReloadMsg {
	return w.ch
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) run() {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				fire = timer.C
			} else {
				timer.Reset(watchDebounce)
			}

		case <-fire:
			timer = nil
			fire = nil
			w.send(w.reload())

		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) reload() ReloadMsg {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return ReloadMsg{Err: fmt.Errorf("error re-reading %s: %w", w.path, err)}
	}
	value, err := treeview.Parse(data)
	if err != nil {
		return ReloadMsg{Err: fmt.Errorf("error parsing %s: %w", w.path, err)}
	}
	return ReloadMsg{Value: value}
}

// send replaces a pending reload the model has not picked up yet; only the
// newest content matters.
func (w *Watcher) send(msg ReloadMsg) {
	for {
		select {
		case w.ch <- msg:
			return
		case <-w.done:
			return
		default:
			select {
			case <-w.ch:
			default:
			}
		}
	}
}

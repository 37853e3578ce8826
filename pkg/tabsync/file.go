package tabsync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/zfogg/dormdesk/pkg/logger"
)

const (
	msgSuffix = ".msg"
	msgMaxAge = time.Minute
)

// File is a bus shared by processes through a directory. Each message is a
// small file renamed into place; members watch the directory with fsnotify.
type File struct {
	dir     string
	channel string
	id      string
}

// NewFile creates a member of the named channel under dir
func NewFile(dir, channel string) (*File, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &File{dir: dir, channel: channel, id: uuid.NewString()}, nil
}

func (f *File) prefix() string {
	return f.channel + "-"
}

// Publish writes msg as a new file in the channel directory
func (f *File) Publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(f.id, msg)
	if err != nil {
		return err
	}

	name := fmt.Sprintf("%s%d-%s%s", f.prefix(), time.Now().UnixNano(), f.id[:8], msgSuffix)
	tmp := filepath.Join(f.dir, "."+name+".tmp")
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	if err := os.Rename(tmp, filepath.Join(f.dir, name)); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	f.sweep()
	return nil
}

// sweep removes messages old enough that every live member has seen them
func (f *File) sweep() {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-msgMaxAge)
	for _, e := range entries {
		if !f.owns(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err == nil && info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(f.dir, e.Name()))
		}
	}
}

func (f *File) owns(name string) bool {
	return strings.HasPrefix(name, f.prefix()) && strings.HasSuffix(name, msgSuffix)
}

// Subscribe watches the channel directory for messages from other members
func (f *File) Subscribe(ctx context.Context) (<-chan Message, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(f.dir); err != nil {
		watcher.Close()
		return nil, err
	}

	out := make(chan Message)
	go func() {
		defer close(out)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Create) || !f.owns(filepath.Base(ev.Name)) {
					continue
				}
				msg, ok := f.read(ev.Name)
				if !ok {
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Session sync watcher error", "error", err)
			}
		}
	}()
	return out, nil
}

func (f *File) read(path string) (Message, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Swept before we got to it
		return nil, false
	}
	msg, sender, err := Decode(data)
	if err != nil {
		logger.Warn("Dropping session sync message", "file", filepath.Base(path), "error", err)
		return nil, false
	}
	if sender == f.id {
		return nil, false
	}
	return msg, true
}

func (f *File) Close() error { return nil }

package chatclient

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

// Favorites is the guest favorites list, kept as a JSON array of
// announcement ids in a local file. Other processes may edit the same file;
// Watch picks their changes up.
type Favorites struct {
	path string
	// writeMu serializes Add and Remove from read to rename.
	writeMu sync.Mutex
	mu      sync.Mutex
	ids     []string
	updates chan struct{}
}

// OpenFavorites loads path. A missing file is an empty list.
func OpenFavorites(path string) (*Favorites, error) {
	f := &Favorites{path: filepath.Clean(path), updates: make(chan struct{}, 1)}
	if err := f.reload(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Favorites) reload() error {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		f.mu.Lock()
		f.ids = nil
		f.mu.Unlock()
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "read favorites")
	}
	var ids []string
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &ids); err != nil {
			return errors.Wrapf(err, "parse %s", f.path)
		}
	}
	f.mu.Lock()
	f.ids = ids
	f.mu.Unlock()
	return nil
}

// Updates signals after every change, local or from another process.
// Signals are coalesced.
func (f *Favorites) Updates() <-chan struct{} {
	return f.updates
}

func (f *Favorites) notify() {
	select {
	case f.updates <- struct{}{}:
	default:
	}
}

func (f *Favorites) List() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.ids))
	copy(out, f.ids)
	return out
}

func (f *Favorites) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ids)
}

func (f *Favorites) Contains(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return indexOf(f.ids, id) >= 0
}

func (f *Favorites) Add(id string) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	f.mu.Lock()
	if id == "" || indexOf(f.ids, id) >= 0 {
		f.mu.Unlock()
		return nil
	}
	next := append(append([]string(nil), f.ids...), id)
	f.mu.Unlock()
	return f.save(next)
}

func (f *Favorites) Remove(id string) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	f.mu.Lock()
	i := indexOf(f.ids, id)
	if i < 0 {
		f.mu.Unlock()
		return nil
	}
	next := append(append([]string(nil), f.ids[:i]...), f.ids[i+1:]...)
	f.mu.Unlock()
	return f.save(next)
}

// save writes through a temp file so readers never see a partial list.
func (f *Favorites) save(ids []string) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return errors.Wrap(err, "encode favorites")
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create favorites dir")
	}
	tmp, err := os.CreateTemp(dir, ".favorites-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "write favorites")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "close favorites")
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "replace favorites")
	}
	f.mu.Lock()
	f.ids = ids
	f.mu.Unlock()
	f.notify()
	return nil
}

// Watch reloads the list whenever the file changes on disk, until ctx is
// done. The directory is watched since saves replace the file.
func (f *Favorites) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	defer w.Close()
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create favorites dir")
	}
	if err := w.Add(dir); err != nil {
		return errors.Wrapf(err, "watch %s", dir)
	}
	const changed = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != f.path || ev.Op&changed == 0 {
				continue
			}
			before := f.Count()
			if err := f.reload(); err != nil {
				jww.WARN.Printf("favorites: %v", err)
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 || f.Count() != before {
				f.notify()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			jww.WARN.Printf("favorites watcher: %v", err)
		}
	}
}

func indexOf(ids []string, id string) int {
	for i, x := range ids {
		if x == id {
			return i
		}
	}
	return -1
}

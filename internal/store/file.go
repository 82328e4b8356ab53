package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/upmonhq/upmon/internal/common"
)

// File persists each record as one JSON file under dataDir/collection/id.json.
// Creates use O_EXCL for per-key atomicity; updates write a temp file and
// rename it over the old one.
type File struct {
	dataDir string
}

// NewFile creates the data directory if needed and returns a file-backed Store.
func NewFile(dataDir string) (*File, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: mkdir %s: %v", common.ErrStore, dataDir, err)
	}
	return &File{dataDir: dataDir}, nil
}

func (f *File) path(collection, id string) (string, error) {
	// Ids are opaque strings from untrusted input; refuse anything that
	// could escape the collection directory.
	if id == "" || id != filepath.Base(id) || strings.ContainsAny(id, "/\\") {
		return "", common.ErrNotFound
	}
	return filepath.Join(f.dataDir, collection, id+".json"), nil
}

func (f *File) Create(ctx context.Context, collection, id string, record any) error {
	path, err := f.path(collection, id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: mkdir: %v", common.ErrStore, err)
	}

	b, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", common.ErrStore, err)
	}

	fd, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("%w: create %s/%s: %v", common.ErrStore, collection, id, err)
	}
	defer fd.Close()

	if _, err := fd.Write(b); err != nil {
		return fmt.Errorf("%w: write %s/%s: %v", common.ErrStore, collection, id, err)
	}
	return nil
}

func (f *File) Read(ctx context.Context, collection, id string, out any) error {
	path, err := f.path(collection, id)
	if err != nil {
		return err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return common.ErrNotFound
		}
		return fmt.Errorf("%w: read %s/%s: %v", common.ErrStore, collection, id, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%w: unmarshal %s/%s: %v", common.ErrStore, collection, id, err)
	}
	return nil
}

func (f *File) Update(ctx context.Context, collection, id string, record any) error {
	path, err := f.path(collection, id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return common.ErrNotFound
		}
		return fmt.Errorf("%w: stat %s/%s: %v", common.ErrStore, collection, id, err)
	}

	b, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", common.ErrStore, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("%w: write %s/%s: %v", common.ErrStore, collection, id, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("%w: rename %s/%s: %v", common.ErrStore, collection, id, err)
	}
	return nil
}

func (f *File) Delete(ctx context.Context, collection, id string) error {
	path, err := f.path(collection, id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return common.ErrNotFound
		}
		return fmt.Errorf("%w: delete %s/%s: %v", common.ErrStore, collection, id, err)
	}
	return nil
}

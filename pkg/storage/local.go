package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// localDisk is the local-filesystem driver. Each key maps to <root>/<key>.json.
type localDisk struct {
	root string // absolute root directory
}

// NewLocal returns a file-backed Store rooted at root, creating it if needed.
func NewLocal(root string) (Store, error) {
	if root == "" {
		root = ".canteen"
	}
	if !filepath.IsAbs(root) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("storage/local: getwd: %w", err)
		}
		root = filepath.Join(cwd, root)
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("storage/local: mkdir: %w", err)
	}
	return &localDisk{root: root}, nil
}

func (d *localDisk) abs(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("storage/local: invalid key %q", key)
	}
	return filepath.Join(d.root, key+".json"), nil
}

func (d *localDisk) Get(key string) ([]byte, error) {
	full, err := d.abs(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage/local: get %s: %w", key, err)
	}
	return data, nil
}

// Put writes to a temp file in the same directory and renames it over the
// target, so the old value survives a crash mid-write.
func (d *localDisk) Put(key string, value []byte) error {
	full, err := d.abs(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.root, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("storage/local: create temp for %s: %w", key, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("storage/local: write %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("storage/local: sync %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("storage/local: close %s: %w", key, err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		cleanup()
		return fmt.Errorf("storage/local: rename %s: %w", key, err)
	}
	return nil
}

func (d *localDisk) Delete(key string) error {
	full, err := d.abs(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage/local: delete %s: %w", key, err)
	}
	return nil
}

func (d *localDisk) Exists(key string) bool {
	full, err := d.abs(key)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

func (d *localDisk) Close() error { return nil }

package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileRepository stores settings in a YAML file, writing through on every change
type FileRepository struct {
	path string
	values
}

// NewFileRepository creates a repository at path. A leading "~/" expands to the home directory.
func NewFileRepository(path string) (*FileRepository, error) {
	expanded, err := expandHome(path)
	if err != nil {
		return nil, err
	}
	return &FileRepository{path: expanded}, nil
}

// Path returns the resolved settings file path
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads the file. A missing file loads as empty.
func (r *FileRepository) Load(ctx context.Context) error {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		r.replace(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}

	stored := make(map[string]string)
	if err := yaml.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to parse settings %s: %w", r.path, err)
	}
	r.replace(stored)
	return nil
}

func (r *FileRepository) Get(ctx context.Context, key string) (string, error) {
	return r.get(key)
}

func (r *FileRepository) All(ctx context.Context) (map[string]string, error) {
	return r.snapshot()
}

func (r *FileRepository) Set(ctx context.Context, key, value string) error {
	return r.mutate(func(data map[string]string) { data[key] = value })
}

func (r *FileRepository) Delete(ctx context.Context, key string) error {
	return r.mutate(func(data map[string]string) { delete(data, key) })
}

func (r *FileRepository) Close() error { return nil }

// mutate applies change to a copy, persists it and only then swaps it in
func (r *FileRepository) mutate(change func(map[string]string)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded {
		return ErrNotLoaded
	}

	next := make(map[string]string, len(r.data)+1)
	for k, v := range r.data {
		next[k] = v
	}
	change(next)

	if err := r.write(next); err != nil {
		return err
	}
	r.data = next
	return nil
}

func (r *FileRepository) write(data map[string]string) error {
	out, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/elementx/pkg/domain"
)

var errNotExist = errors.New("record does not exist")

func recordPath(dir, kind, id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%s id cannot be empty", kind)
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid %s id %q", kind, id)
	}
	return filepath.Join(dir, id+".json"), nil
}

// writeJSON writes v to path through a temp file so a crash never leaves half
// a record behind.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to ensure directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write record file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to commit record file: %w", err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errNotExist
		}
		return fmt.Errorf("failed to read record file: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", filepath.Base(path), err)
	}
	return nil
}

// readDir decodes every record in dir. A missing directory is empty.
func readDir[T any](ctx context.Context, dir string) ([]T, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var out []T
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var v T
		if err := readJSON(filepath.Join(dir, entry.Name()), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// SampleStore implements ports.SampleStore using the local filesystem.
// It stores each sample as a JSON file in a configured directory.
type SampleStore struct {
	BasePath string
}

// NewSampleStore creates a new SampleStore with the given base path.
// If basePath is empty, it defaults to ".elementx/samples".
func NewSampleStore(basePath string) *SampleStore {
	if basePath == "" {
		basePath = filepath.Join(".elementx", "samples")
	}
	return &SampleStore{BasePath: basePath}
}

// Save persists the sample to a JSON file.
func (f *SampleStore) Save(ctx context.Context, sample *domain.Sample) error {
	path, err := recordPath(f.BasePath, "sample", sample.ID)
	if err != nil {
		return err
	}
	return writeJSON(path, sample)
}

// Load retrieves the sample from its JSON file.
func (f *SampleStore) Load(ctx context.Context, id string) (*domain.Sample, error) {
	path, err := recordPath(f.BasePath, "sample", id)
	if err != nil {
		return nil, err
	}
	var sample domain.Sample
	if err := readJSON(path, &sample); err != nil {
		if errors.Is(err, errNotExist) {
			return nil, domain.ErrSampleNotFound
		}
		return nil, err
	}
	return &sample, nil
}

// Delete removes the sample file.
func (f *SampleStore) Delete(ctx context.Context, id string) error {
	path, err := recordPath(f.BasePath, "sample", id)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete sample file: %w", err)
	}
	return nil
}

// List reads every sample file and returns the user's samples, newest first.
func (f *SampleStore) List(ctx context.Context, userID string) ([]domain.Sample, error) {
	all, err := readDir[domain.Sample](ctx, f.BasePath)
	if err != nil {
		return nil, err
	}
	samples := []domain.Sample{}
	for _, s := range all {
		if s.UserID == userID {
			samples = append(samples, s)
		}
	}
	slices.SortFunc(samples, func(a, b domain.Sample) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return samples, nil
}

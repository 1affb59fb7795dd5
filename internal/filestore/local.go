package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/fedro86/almost-a-cms/internal/model"
	appErr "github.com/fedro86/almost-a-cms/internal/pkg/errors"
	"github.com/fedro86/almost-a-cms/internal/pkg/fileutil"
)

type localConfig struct {
	Dir       string `json:"dir"`
	AssetsDir string `json:"assets_dir"`
}

type localStore struct {
	dir       string
	assetsDir string
}

func init() {
	Register("local", createLocalStore)
}

func createLocalStore(args interface{}) (Store, error) {
	config := &localConfig{}
	if err := decodeConfig(args, config); err != nil {
		return nil, err
	}
	if config.Dir == "" {
		return nil, fmt.Errorf("local store dir is required")
	}
	store := &localStore{dir: config.Dir, assetsDir: config.AssetsDir}
	if store.assetsDir == "" {
		store.assetsDir = defaultAssetsDir(config.Dir)
	}
	return store, nil
}

// NewLocal stores each document as <dir>/<name>.json and images under
// assets/images beside dir, the layout of a published site checkout.
func NewLocal(dir string) Store {
	return &localStore{dir: dir, assetsDir: defaultAssetsDir(dir)}
}

func defaultAssetsDir(dir string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(dir)), filepath.FromSlash(model.AssetDir))
}

func (s *localStore) Type() string {
	return "local"
}

// Dir is the directory documents live in.
func (s *localStore) Dir() string {
	return s.dir
}

func (s *localStore) Load(ctx context.Context, name string) ([]byte, error) {
	_ = ctx
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("document %s: %w", name, appErr.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: read %s: %w", appErr.ErrIO, name, err)
	}
	return data, nil
}

func (s *localStore) Save(ctx context.Context, name string, data []byte) error {
	_ = ctx
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: save %s: %w", appErr.ErrIO, name, err)
	}
	return nil
}

func (s *localStore) List(ctx context.Context) ([]string, error) {
	_ = ctx
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: list %s: %w", appErr.ErrIO, s.dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, ok := nameFromFile(entry.Name())
		if !ok || model.ValidateName(name) != nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *localStore) path(name string) (string, error) {
	if err := model.ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, fileName(name)), nil
}

func (s *localStore) SaveAsset(ctx context.Context, name string, r ReadSeekCloser, size int64) error {
	_ = ctx
	if err := model.ValidateAssetName(name); err != nil {
		return err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w: rewind %s: %w", appErr.ErrIO, name, err)
	}
	written, err := fileutil.WriteReaderAtomic(filepath.Join(s.assetsDir, name), io.LimitReader(r, size), 0o644)
	if err != nil {
		return fmt.Errorf("%w: save asset %s: %w", appErr.ErrIO, name, err)
	}
	if written != size {
		return fmt.Errorf("%w: asset %s: wrote %d of %d bytes", appErr.ErrIO, name, written, size)
	}
	return nil
}

func (s *localStore) OpenAsset(ctx context.Context, name string) (io.ReadCloser, error) {
	_ = ctx
	if err := model.ValidateAssetName(name); err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(s.assetsDir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("asset %s: %w", name, appErr.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: open asset %s: %w", appErr.ErrIO, name, err)
	}
	return file, nil
}

func (s *localStore) ListAssets(ctx context.Context) ([]string, error) {
	_ = ctx
	entries, err := os.ReadDir(s.assetsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: list %s: %w", appErr.ErrIO, s.assetsDir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || model.ValidateAssetName(entry.Name()) != nil {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

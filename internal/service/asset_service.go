package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/fedro86/almost-a-cms/internal/filestore"
	"github.com/fedro86/almost-a-cms/internal/model"
	appErr "github.com/fedro86/almost-a-cms/internal/pkg/errors"
)

const sniffLen = 512

type AssetService struct {
	assets   filestore.AssetStore
	maxBytes int64
}

func NewAssetService(assets filestore.AssetStore, maxBytes int64) *AssetService {
	if maxBytes <= 0 {
		maxBytes = model.DefaultMaxAssetBytes
	}
	return &AssetService{assets: assets, maxBytes: maxBytes}
}

func (s *AssetService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload stores an image under name after checking its size and that the
// content looks like the image type its extension claims.
func (s *AssetService) Upload(ctx context.Context, name string, r filestore.ReadSeekCloser, size int64) (*model.Asset, error) {
	if err := model.ValidateAssetName(name); err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: %s is empty", appErr.ErrInvalidData, name)
	}
	if size > s.maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", appErr.ErrTooLarge, name, size, s.maxBytes)
	}
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("%w: read %s: %w", appErr.ErrIO, name, err)
	}
	if !looksLikeImage(name, head[:n]) {
		return nil, fmt.Errorf("%w: %s is not an image", appErr.ErrInvalidData, name)
	}
	if err := s.assets.SaveAsset(ctx, name, r, size); err != nil {
		return nil, err
	}
	asset := model.NewAsset(name)
	asset.Size = size
	logutil.GetLogger(ctx).Info("asset saved", zap.String("name", name), zap.Int64("bytes", size))
	return &asset, nil
}

func (s *AssetService) Open(ctx context.Context, name string) (io.ReadCloser, model.Asset, error) {
	rc, err := s.assets.OpenAsset(ctx, name)
	if err != nil {
		return nil, model.Asset{}, err
	}
	return rc, model.NewAsset(name), nil
}

func (s *AssetService) List(ctx context.Context) ([]model.Asset, error) {
	names, err := s.assets.ListAssets(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Asset, 0, len(names))
	for _, name := range names {
		out = append(out, model.NewAsset(name))
	}
	return out, nil
}

// looksLikeImage sniffs raster formats; SVG is text and is recognised by its root element.
func looksLikeImage(name string, head []byte) bool {
	if strings.EqualFold(path.Ext(name), ".svg") {
		return bytes.Contains(bytes.ToLower(head), []byte("<svg"))
	}
	return strings.HasPrefix(http.DetectContentType(head), "image/")
}

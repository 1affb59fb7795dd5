package model

import (
	"fmt"
	"mime"
	"path"
	"regexp"
	"strings"

	appErr "github.com/fedro86/almost-a-cms/internal/pkg/errors"
)

const (
	// AssetDir is where page documents reference uploaded images from.
	AssetDir = "assets/images"
	// DefaultMaxAssetBytes matches the 2MB cap the editor enforces.
	DefaultMaxAssetBytes = 2 << 20
)

var (
	assetPattern    = regexp.MustCompile(`^[A-Za-z0-9_-]+(\.[A-Za-z0-9_-]+)*\.[A-Za-z0-9]+$`)
	assetExtensions = map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".gif":  "image/gif",
		".webp": "image/webp",
		".svg":  "image/svg+xml",
	}
)

// Asset is an uploaded image. Path is the value a document stores to refer to it.
type Asset struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

func NewAsset(name string) Asset {
	return Asset{Name: name, Path: "./" + path.Join(AssetDir, name), ContentType: AssetContentType(name)}
}

// ValidateAssetName accepts a plain file name with an image extension.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: asset name is empty", appErr.ErrInvalidName)
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: asset name longer than %d characters", appErr.ErrInvalidName, MaxNameLength)
	}
	if !assetPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", appErr.ErrInvalidName, name)
	}
	if _, ok := assetExtensions[strings.ToLower(path.Ext(name))]; !ok {
		return fmt.Errorf("%w: %q is not a supported image type", appErr.ErrInvalidName, name)
	}
	return nil
}

// AssetContentType derives the served type from the extension.
func AssetContentType(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ct, ok := assetExtensions[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

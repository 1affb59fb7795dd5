package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/fedro86/almost-a-cms/internal/filestore"
	"github.com/fedro86/almost-a-cms/internal/generator"
	"github.com/fedro86/almost-a-cms/internal/model"
	appErr "github.com/fedro86/almost-a-cms/internal/pkg/errors"
)

const indentUnit = "    "

// Regenerator rebuilds the static index from the current documents.
type Regenerator interface {
	Generate(ctx context.Context) (*generator.Result, error)
}

type EditService struct {
	store     filestore.Store
	generator Regenerator
}

func NewEditService(store filestore.Store, generator Regenerator) *EditService {
	return &EditService{store: store, generator: generator}
}

// Fetch loads a document and returns it pretty-printed for editing.
func (s *EditService) Fetch(ctx context.Context, name string) (*model.Document, error) {
	if err := model.ValidateName(name); err != nil {
		return nil, err
	}
	raw, err := s.store.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	content, err := formatJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("stored document %s: %w", name, err)
	}
	return &model.Document{Name: name, Content: string(content)}, nil
}

// Update replaces the document with body and regenerates the index.
// A malformed body never reaches the store. A regeneration failure is
// reported after the document has already been written.
func (s *EditService) Update(ctx context.Context, name string, body []byte) error {
	logger := logutil.GetLogger(ctx).With(zap.String("name", name))
	if err := model.ValidateName(name); err != nil {
		return err
	}
	content, err := formatJSON(body)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, name, content); err != nil {
		return err
	}
	logger.Info("document saved", zap.Int("bytes", len(content)))
	if _, err := s.Regenerate(ctx); err != nil {
		return err
	}
	return nil
}

func (s *EditService) List(ctx context.Context) ([]string, error) {
	return s.store.List(ctx)
}

func (s *EditService) Regenerate(ctx context.Context) (*generator.Result, error) {
	result, err := s.generator.Generate(ctx)
	if err != nil {
		if appErr.KindOf(err) != appErr.KindRegenerationFailure {
			err = fmt.Errorf("%w: %w", appErr.ErrRegenerate, err)
		}
		return nil, err
	}
	return result, nil
}

// formatJSON validates data as a single UTF-8 JSON value and re-indents it
// with four spaces, keeping key order and number spelling as written.
// encoding/json passes invalid UTF-8 inside strings through untouched, so the
// encoding is checked separately.
func formatJSON(data []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", appErr.ErrInvalidData)
	}
	if !utf8.Valid(trimmed) {
		return nil, fmt.Errorf("%w: body is not valid utf-8", appErr.ErrInvalidData)
	}
	if !json.Valid(trimmed) {
		var probe interface{}
		err := json.Unmarshal(trimmed, &probe)
		if err == nil {
			err = fmt.Errorf("malformed json")
		}
		return nil, fmt.Errorf("%w: %w", appErr.ErrInvalidData, err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, trimmed, "", indentUnit); err != nil {
		return nil, fmt.Errorf("%w: %w", appErr.ErrInvalidData, err)
	}
	return out.Bytes(), nil
}

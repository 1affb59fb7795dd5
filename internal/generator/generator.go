package generator

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/fedro86/almost-a-cms/internal/config"
	"github.com/fedro86/almost-a-cms/internal/filestore"
	appErr "github.com/fedro86/almost-a-cms/internal/pkg/errors"
	"github.com/fedro86/almost-a-cms/internal/pkg/fileutil"
)

//go:embed templates/index.html.tmpl
var templateFS embed.FS

const defaultTemplate = "templates/index.html.tmpl"

// Result describes one regeneration run.
type Result struct {
	Path        string    `json:"path"`
	Documents   int       `json:"documents"`
	Bytes       int       `json:"bytes"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Publisher ships a freshly generated page somewhere besides the local file.
type Publisher interface {
	Publish(ctx context.Context, page []byte) error
}

type Listener func(ctx context.Context, result *Result)

// Generator rebuilds the static index page from every stored document.
// Runs are serialized; each run rewrites the page from scratch.
type Generator struct {
	store     filestore.Store
	output    string
	title     string
	tmpl      *template.Template
	values    *valueRenderer
	publisher Publisher

	mu          sync.Mutex
	listenersMu sync.RWMutex
	listeners   []Listener
}

type Option func(g *Generator)

func WithPublisher(p Publisher) Option {
	return func(g *Generator) {
		g.publisher = p
	}
}

func New(store filestore.Store, cfg config.IndexConfig, opts ...Option) (*Generator, error) {
	if store == nil {
		return nil, fmt.Errorf("generator requires a store")
	}
	if cfg.OutputPath == "" {
		return nil, fmt.Errorf("index output path is required")
	}
	var (
		tmpl *template.Template
		err  error
	)
	if cfg.Template != "" {
		tmpl, err = template.ParseFiles(cfg.Template)
	} else {
		tmpl, err = template.ParseFS(templateFS, defaultTemplate)
	}
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}
	g := &Generator{
		store:  store,
		output: cfg.OutputPath,
		title:  cfg.Title,
		tmpl:   tmpl,
		values: newValueRenderer(cfg.MarkdownEnabled()),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// OnGenerated registers fn to run after every successful regeneration.
func (g *Generator) OnGenerated(fn Listener) {
	if fn == nil {
		return
	}
	g.listenersMu.Lock()
	g.listeners = append(g.listeners, fn)
	g.listenersMu.Unlock()
}

func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	start := time.Now()
	result, err := g.generate(ctx)
	logger := logutil.GetLogger(ctx).With(zap.String("output", g.output), zap.Duration("duration", time.Since(start)))
	if err != nil {
		logger.Error("index regeneration failed", zap.Error(err))
		return nil, err
	}
	logger.Info("index regenerated", zap.Int("documents", result.Documents), zap.Int("bytes", result.Bytes))

	g.listenersMu.RLock()
	listeners := append([]Listener(nil), g.listeners...)
	g.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn(ctx, result)
	}
	return result, nil
}

type section struct {
	Name string
	Body template.HTML
}

type pageData struct {
	Title    string
	Sections []section
}

func (g *Generator) generate(ctx context.Context) (*Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	names, err := g.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %w", appErr.ErrRegenerate, err)
	}
	data := pageData{Title: g.title, Sections: make([]section, 0, len(names))}
	for _, name := range names {
		raw, err := g.store.Load(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("%w: load %s: %w", appErr.ErrRegenerate, name, err)
		}
		value, err := decodeDocument(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: document %s: %w", appErr.ErrRegenerate, name, err)
		}
		body, err := g.values.Render(value)
		if err != nil {
			return nil, fmt.Errorf("%w: render %s: %w", appErr.ErrRegenerate, name, err)
		}
		data.Sections = append(data.Sections, section{Name: name, Body: template.HTML(body)})
	}

	var page bytes.Buffer
	if err := g.tmpl.Execute(&page, data); err != nil {
		return nil, fmt.Errorf("%w: execute template: %w", appErr.ErrRegenerate, err)
	}
	if err := fileutil.WriteFileAtomic(g.output, page.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("%w: write %s: %w", appErr.ErrRegenerate, g.output, err)
	}
	if g.publisher != nil {
		if err := g.publisher.Publish(ctx, page.Bytes()); err != nil {
			return nil, fmt.Errorf("%w: publish: %w", appErr.ErrRegenerate, err)
		}
	}
	return &Result{
		Path:        g.output,
		Documents:   len(names),
		Bytes:       page.Len(),
		GeneratedAt: time.Now(),
	}, nil
}

package generator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"sort"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	appErr "github.com/fedro86/almost-a-cms/internal/pkg/errors"
)

type valueRenderer struct {
	md goldmark.Markdown
}

func newValueRenderer(markdown bool) *valueRenderer {
	if !markdown {
		return &valueRenderer{}
	}
	return &valueRenderer{md: goldmark.New(goldmark.WithExtensions(extension.GFM))}
}

// decodeDocument parses stored bytes keeping numbers as written.
func decodeDocument(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("%w: %w", appErr.ErrInvalidData, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after json value", appErr.ErrInvalidData)
	}
	return value, nil
}

func (r *valueRenderer) Render(value interface{}) (string, error) {
	var buf bytes.Buffer
	if err := r.render(&buf, value); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *valueRenderer) render(buf *bytes.Buffer, value interface{}) error {
	switch v := value.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteString(`<dl class="object">`)
		for _, k := range keys {
			buf.WriteString("<dt>")
			buf.WriteString(html.EscapeString(k))
			buf.WriteString("</dt><dd>")
			if err := r.render(buf, v[k]); err != nil {
				return err
			}
			buf.WriteString("</dd>")
		}
		buf.WriteString("</dl>")
	case []interface{}:
		buf.WriteString(`<ol class="array">`)
		for _, item := range v {
			buf.WriteString("<li>")
			if err := r.render(buf, item); err != nil {
				return err
			}
			buf.WriteString("</li>")
		}
		buf.WriteString("</ol>")
	case string:
		return r.renderText(buf, v)
	case json.Number:
		fmt.Fprintf(buf, `<span class="number">%s</span>`, html.EscapeString(v.String()))
	case bool:
		fmt.Fprintf(buf, `<span class="bool">%t</span>`, v)
	case nil:
		buf.WriteString(`<span class="null">null</span>`)
	default:
		return fmt.Errorf("unsupported json value %T", value)
	}
	return nil
}

func (r *valueRenderer) renderText(buf *bytes.Buffer, text string) error {
	if r.md == nil {
		buf.WriteString(`<span class="text">`)
		buf.WriteString(html.EscapeString(text))
		buf.WriteString("</span>")
		return nil
	}
	buf.WriteString(`<div class="text">`)
	if err := r.md.Convert([]byte(text), buf); err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	buf.WriteString("</div>")
	return nil
}

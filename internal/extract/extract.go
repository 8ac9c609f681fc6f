// Package extract turns uploaded documents into per page text.
package extract

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
)

// Page is the text of one page. Number starts at 1.
type Page struct {
	Number int
	Text   string
}

type Extractor interface {
	ExtractPages(ctx context.Context, r io.Reader) ([]Page, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Extractor{}
	extensions = map[string]string{}
)

// Register adds an extractor for format and the file extensions it handles.
func Register(format string, e Extractor, exts ...string) {
	key := strings.ToLower(strings.TrimSpace(format))
	if key == "" || e == nil {
		return
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[key] = e
	for _, ext := range exts {
		extensions[strings.ToLower(ext)] = key
	}
}

func Get(format string) (Extractor, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	e, ok := registry[strings.ToLower(strings.TrimSpace(format))]
	if !ok {
		return nil, fmt.Errorf("unsupported document format: %s", format)
	}
	return e, nil
}

// ForFile picks the extractor by file extension. Unknown extensions are
// treated as PDF.
func ForFile(name string) (Extractor, error) {
	return Get(FormatOf(name))
}

func FormatOf(name string) string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if f, ok := extensions[strings.ToLower(filepath.Ext(name))]; ok {
		return f
	}
	return "pdf"
}

// Supported reports whether name has an extension with a registered extractor.
func Supported(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

func nonBlank(pages []Page) []Page {
	res := pages[:0]
	for _, p := range pages {
		p.Text = strings.TrimSpace(p.Text)
		if p.Text != "" {
			res = append(res, p)
		}
	}
	return res
}

package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// FontRegistry maps font family names to loaded fonts. Families that are
// not registered fall back to the Go fonts, picking bold or italic to
// match the requested style.
type FontRegistry struct {
	mu       sync.RWMutex
	families map[string]*text.FontSource

	regular, bold, italic *text.FontSource
}

// NewFontRegistry loads the built-in fallback fonts.
func NewFontRegistry() (*FontRegistry, error) {
	r := &FontRegistry{families: make(map[string]*text.FontSource)}
	var err error
	if r.regular, err = text.NewFontSource(goregular.TTF); err != nil {
		return nil, fmt.Errorf("loading regular font: %w", err)
	}
	if r.bold, err = text.NewFontSource(gobold.TTF); err != nil {
		return nil, fmt.Errorf("loading bold font: %w", err)
	}
	if r.italic, err = text.NewFontSource(goitalic.TTF); err != nil {
		return nil, fmt.Errorf("loading italic font: %w", err)
	}
	return r, nil
}

// Register adds a family from TTF/OTF data, replacing any earlier font
// with the same name.
func (r *FontRegistry) Register(name string, data []byte) error {
	key := familyKey(name)
	if key == "" {
		return fmt.Errorf("font name cannot be empty")
	}
	src, err := text.NewFontSource(data)
	if err != nil {
		return fmt.Errorf("parsing font %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.families[key]; ok {
		old.Close()
	}
	r.families[key] = src
	return nil
}

// RegisterFile registers the font at path under name.
func (r *FontRegistry) RegisterFile(name, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading font file: %w", err)
	}
	return r.Register(name, data)
}

// LoadDir registers every .ttf and .otf file in dir under its file stem.
// A missing directory is not an error.
func (r *FontRegistry) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading font directory: %w", err)
	}

	n := 0
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".ttf" && ext != ".otf") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if err := r.RegisterFile(name, filepath.Join(dir, e.Name())); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Families lists registered family names in lowercase.
func (r *FontRegistry) Families() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.families))
	for k := range r.families {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Face resolves a CSS font-family list to a face of the given size. The
// first registered family in the list wins.
func (r *FontRegistry) Face(family, style, weight string, size float64) text.Face {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range strings.Split(family, ",") {
		if src, ok := r.families[familyKey(name)]; ok {
			return src.Face(size)
		}
	}
	switch {
	case weight == "bold":
		return r.bold.Face(size)
	case style == "italic":
		return r.italic.Face(size)
	}
	return r.regular.Face(size)
}

func familyKey(name string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(name), `"'`))
}

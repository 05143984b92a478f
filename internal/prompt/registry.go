package prompt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/alnah/go-texgen/internal/assets"
)

// Sentinel errors for template resolution.
var (
	// ErrUnknownPromptType is reported alongside a successful resolution
	// when the requested type fell back to the default.
	ErrUnknownPromptType = errors.New("unknown prompt type")
	ErrTemplateNotFound  = errors.New("prompt template not found")
)

// Resolved is the outcome of looking up a prompt type.
type Resolved struct {
	Type     string // type actually used
	Text     string
	FellBack bool // requested type was unknown
}

// Registry maps prompt type names to templates. File templates are read once
// per resolved path and cached for the life of the registry.
type Registry struct {
	defaultType string
	templates   map[string]Template

	mu    sync.Mutex
	cache map[string]string

	readFile func(string) ([]byte, error)
}

// NewRegistry creates an empty registry whose fallback is defaultType.
func NewRegistry(defaultType string) *Registry {
	return &Registry{
		defaultType: defaultType,
		templates:   make(map[string]Template),
		cache:       make(map[string]string),
		readFile:    os.ReadFile,
	}
}

// NewDefaultRegistry registers the built-in prompt types from loader, then
// overlays file templates from files (type -> path). Relative paths are
// resolved against baseDir.
func NewDefaultRegistry(loader assets.AssetLoader, defaultType string, files map[string]string, baseDir string) (*Registry, error) {
	r := NewRegistry(defaultType)
	for _, name := range assets.PromptTypes() {
		text, err := loader.LoadPrompt(name)
		if err != nil {
			return nil, fmt.Errorf("loading built-in prompt %q: %w", name, err)
		}
		r.Register(name, InlineTemplate(text))
	}
	for name, path := range files {
		if path == "" {
			continue
		}
		if baseDir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		r.Register(name, FileTemplate(path))
	}
	if _, ok := r.templates[defaultType]; !ok {
		return nil, fmt.Errorf("%w: default type %q is not registered", ErrTemplateNotFound, defaultType)
	}
	return r, nil
}

// Register adds or replaces the template for name.
func (r *Registry) Register(name string, t Template) {
	r.templates[name] = t
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether promptType is registered.
func (r *Registry) Has(promptType string) bool {
	_, ok := r.templates[strings.TrimSpace(promptType)]
	return ok
}

// Resolve returns the template text for promptType. An unknown or empty type
// resolves to the default type with FellBack set. A file template that
// cannot be read returns ErrTemplateNotFound.
func (r *Registry) Resolve(promptType string) (Resolved, error) {
	name := strings.TrimSpace(promptType)
	tpl, ok := r.templates[name]
	res := Resolved{Type: name}
	if !ok {
		res = Resolved{Type: r.defaultType, FellBack: true}
		tpl, ok = r.templates[r.defaultType]
		if !ok {
			return res, fmt.Errorf("%w: no template for default type %q", ErrTemplateNotFound, r.defaultType)
		}
	}

	text, err := r.text(tpl)
	if err != nil {
		return res, err
	}
	res.Text = text
	return res, nil
}

func (r *Registry) text(t Template) (string, error) {
	switch t.Kind {
	case KindInline:
		return t.Text, nil
	case KindFile:
		return r.load(t.Path)
	default:
		return "", fmt.Errorf("%w: unsupported template kind %s", ErrTemplateNotFound, t.Kind)
	}
}

func (r *Registry) load(path string) (string, error) {
	key := path
	if abs, err := filepath.Abs(path); err == nil {
		key = abs
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if text, ok := r.cache[key]; ok {
		return text, nil
	}
	data, err := r.readFile(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, path)
		}
		return "", fmt.Errorf("%w: reading %s: %v", ErrTemplateNotFound, path, err)
	}
	text := string(data)
	r.cache[key] = text
	return text, nil
}

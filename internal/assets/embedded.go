package assets

import (
	"embed"
	"fmt"
)

//go:embed prompts/* wrappers/* styles/*
var embedded embed.FS

// EmbeddedLoader loads assets from embedded filesystem.
// Implements AssetLoader interface.
type EmbeddedLoader struct{}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

func (e *EmbeddedLoader) LoadPrompt(name string) (string, error) {
	return e.load(promptKind, name)
}

func (e *EmbeddedLoader) LoadWrapper(name string) (string, error) {
	return e.load(wrapperKind, name)
}

func (e *EmbeddedLoader) LoadStyle(name string) (string, error) {
	return e.load(styleKind, name)
}

func (e *EmbeddedLoader) load(k kind, name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}

	// embed.FS always uses forward slashes.
	content, err := embedded.ReadFile(k.dir + "/" + name + k.ext)
	if err != nil {
		return "", fmt.Errorf("%w: %q", k.notFound, name)
	}

	return string(content), nil
}

// Compile-time interface check.
var _ AssetLoader = (*EmbeddedLoader)(nil)

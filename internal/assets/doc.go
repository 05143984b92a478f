// Package assets provides the prompt templates, document wrappers and
// stylesheets used to generate entries.
//
// # Loader Architecture
//
// The package implements a layered loading system:
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (defaults)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// EmbeddedLoader provides the built-in prompts (definition, abstract,
// computation), wrappers (latex, html) and the default HTML style.
//
// FilesystemLoader allows users to override any of them from a directory,
// with path traversal protection and symlink resolution.
//
// AssetResolver tries the custom FilesystemLoader first, falling back to
// EmbeddedLoader when the asset is not found there.
//
// # Directory Structure
//
//	{basePath}/
//	├── prompts/
//	│   └── {name}.txt           # Prompt template (e.g., definition.txt)
//	├── wrappers/
//	│   └── {name}.tmpl          # Document wrapper (latex.tmpl, html.tmpl)
//	└── styles/
//	    └── {name}.css           # HTML output stylesheet
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets

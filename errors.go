package texgen

import (
	"errors"

	"github.com/alnah/go-texgen/internal/compile"
	"github.com/alnah/go-texgen/internal/config"
	"github.com/alnah/go-texgen/internal/prompt"
	"github.com/alnah/go-texgen/internal/slug"
	"github.com/alnah/go-texgen/internal/validate"
)

// Sentinel errors for generation runs.
var (
	ErrGenerationFailed = errors.New("generation failed")
	ErrOutputCollision  = errors.New("output file already exists")
	ErrMissingSubtopic  = errors.New("missing subtopic")
	ErrEmptyResponse    = errors.New("empty response from model")
	ErrNoClient         = errors.New("no generation client configured")
)

// Errors defined by internal packages, re-exported for errors.Is checks.
var (
	ErrConfigMissing       = config.ErrConfigMissing
	ErrConfigParse         = config.ErrConfigParse
	ErrConfigField         = config.ErrConfigField
	ErrUnknownPromptType   = prompt.ErrUnknownPromptType
	ErrTemplateNotFound    = prompt.ErrTemplateNotFound
	ErrInvalidSlug         = slug.ErrInvalidSlug
	ErrValidationFailed    = validate.ErrValidationFailed
	ErrCompilerUnavailable = compile.ErrCompilerUnavailable
	ErrCompilerFailed      = compile.ErrCompilerFailed
)

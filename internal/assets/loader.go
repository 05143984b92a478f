package assets

// AssetLoader defines the contract for loading generation assets.
type AssetLoader interface {
	// LoadPrompt loads a prompt template by name (without .txt extension).
	// Returns ErrPromptNotFound if the prompt doesn't exist.
	LoadPrompt(name string) (string, error)

	// LoadWrapper loads a document wrapper by name (without .tmpl extension).
	// Returns ErrWrapperNotFound if the wrapper doesn't exist.
	LoadWrapper(name string) (string, error)

	// LoadStyle loads a CSS style by name (without .css extension).
	// Returns ErrStyleNotFound if the style doesn't exist.
	LoadStyle(name string) (string, error)
}

// kind describes where an asset type lives and how a miss is reported.
type kind struct {
	dir      string
	ext      string
	notFound error
}

var (
	promptKind  = kind{dir: "prompts", ext: ".txt", notFound: ErrPromptNotFound}
	wrapperKind = kind{dir: "wrappers", ext: ".tmpl", notFound: ErrWrapperNotFound}
	styleKind   = kind{dir: "styles", ext: ".css", notFound: ErrStyleNotFound}
)

// Built-in asset names.
const (
	PromptDefinition  = "definition"
	PromptAbstract    = "abstract"
	PromptComputation = "computation"

	WrapperLaTeX = "latex"
	WrapperHTML  = "html"

	DefaultStyleName = "default"
)

// PromptTypes lists the prompt types shipped with the binary.
func PromptTypes() []string {
	return []string{PromptDefinition, PromptAbstract, PromptComputation}
}

package assets

// defaultLoader is the package-level embedded loader.
var defaultLoader = NewEmbeddedLoader()

// LoadPrompt loads a built-in prompt template by name.
func LoadPrompt(name string) (string, error) {
	return defaultLoader.LoadPrompt(name)
}

// LoadWrapper loads a built-in document wrapper by name.
func LoadWrapper(name string) (string, error) {
	return defaultLoader.LoadWrapper(name)
}

// LoadStyle loads a built-in CSS file by name.
func LoadStyle(name string) (string, error) {
	return defaultLoader.LoadStyle(name)
}

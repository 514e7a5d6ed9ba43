package speechtotext

type TranscriptionOptions struct {
	// Language hints the recognition language, e.g. "en-US".
	Language string
	// Model selects a backend-specific model variant.
	Model string
}

type TranscriptionOption func(*TranscriptionOptions)

func WithLanguage(language string) TranscriptionOption {
	return func(o *TranscriptionOptions) { o.Language = language }
}

func WithModel(model string) TranscriptionOption {
	return func(o *TranscriptionOptions) { o.Model = model }
}

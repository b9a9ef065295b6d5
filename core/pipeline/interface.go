package pipeline

// EmbedFunc is a function that generates embeddings for text.
// The provider behind it is opaque to the rest of the system; the
// store only checks the returned vector length against the
// collection's configured dimension.
type EmbedFunc func(text string) ([]float32, error)

package pipeline

import (
	"fmt"
	"os"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/memgraph/helper"
)

// DefaultEmbeddingModel produces 384-dimensional embeddings.
const (
	DefaultEmbeddingModel     = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultEmbeddingDimension = 384
)

// DefaultEmbedder creates an embedder using the default sentence
// transformer model.
func DefaultEmbedder() (EmbedFunc, error) {
	return NewEmbedder(DefaultEmbeddingModel)
}

// EmbedderFromEnv creates an embedder for the model named by the
// EMBEDDING_MODEL environment variable, falling back to the default
// model when unset. Provider and model selection stay outside the
// store; everything downstream only sees an EmbedFunc.
func EmbedderFromEnv() (EmbedFunc, error) {
	modelName := os.Getenv("EMBEDDING_MODEL")
	if modelName == "" {
		modelName = DefaultEmbeddingModel
	}
	return NewEmbedder(modelName)
}

// NewEmbedder creates an embedder running the given sentence
// transformer model locally, downloading it first if needed.
func NewEmbedder(modelName string) (EmbedFunc, error) {
	// Prepare model (download if needed)
	modelPath, err := helper.PrepareModel(modelName, "onnx/model.onnx")
	if err != nil {
		return nil, err
	}

	// Initialize hugot session with Go backend
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	// Create sentence transformers pipeline configuration
	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-pipeline",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	return func(text string) ([]float32, error) {
		// Generate embedding for the text
		result, err := sentencePipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, fmt.Errorf("failed to generate embedding: %w", err)
		}

		if len(result.Embeddings) == 0 {
			return nil, fmt.Errorf("no embedding generated")
		}

		// Extract the first (and only) embedding
		embedding := result.Embeddings[0]
		return embedding, nil
	}, nil
}

//go:build onnx

package app

import (
	"github.com/neurochat/neurochat/config"
	"github.com/neurochat/neurochat/memory"
	"github.com/neurochat/neurochat/memory/embedder/onnx"
)

func init() {
	newONNXEmbedder = func(cfg config.Config) (memory.Embedder, error) {
		return onnx.New(onnx.Config{
			ModelPath:     cfg.ONNXModelPath,
			TokenizerPath: cfg.ONNXTokenizerPath,
			Dimensions:    cfg.EmbeddingDim,
		})
	}
}

// Package onnx runs extractive question-answering models exported to ONNX.
//
// Inference goes through github.com/yalue/onnxruntime_go, which loads the
// ONNX Runtime shared library at runtime. Tokenization reads the model's
// tokenizer.json with github.com/sugarme/tokenizer.
//
// The runtime environment is process-wide: it is initialized by the first
// Load and destroyed by Loader.Close.
package onnx

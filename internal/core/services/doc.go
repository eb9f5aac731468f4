// Package services implements the driving port interfaces.
// Services contain the core orchestration and call out to driven
// ports (adapters) for tokenization, inference and caching.
//
// Services are pure Go with no CGO; the model runtime lives behind
// driven.ModelLoader.
package services

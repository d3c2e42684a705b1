package nnue

import "os"

// LoadBlobFile reads a compressed weight blob from disk. The configured
// path comes from the engine's TOML configuration (see internal/config);
// an empty path is not an error — callers fall back to NewEvaluator(nil),
// which produces a network of all-zero weights.
func LoadBlobFile(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}

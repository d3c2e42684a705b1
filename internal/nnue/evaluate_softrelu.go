//go:build softrelu_bug

package nnue

// activate reproduces the trainer's bug: layer 2 was meant to use a "soft"
// ReLU (see evaluate.go) but one of the trained weight sets was produced
// with a plain ReLU instead. Layer 3 is unaffected; it always uses the soft
// form via activateL3. Build with -tags softrelu_bug when loading weights
// trained under the bug so inference matches training.
func activate(v int32) int32 {
	if v > 0 {
		return v
	}
	return 0
}

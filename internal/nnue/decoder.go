package nnue

// RangeDecoder is a single-pass, stateful arithmetic (range) decoder that
// consumes the compressed weight blob one probability-weighted bit at a
// time. It mirrors the original engine's byte-feeding range coder: h/c
// renormalize by multiplying by 256 and pulling in one more input byte
// whenever the range narrows below 16384.
type RangeDecoder struct {
	data []byte
	pos  int
	h    uint32
	c    uint32
}

// NewRangeDecoder returns a decoder reading from the given compressed blob.
func NewRangeDecoder(data []byte) *RangeDecoder {
	return &RangeDecoder{data: data, h: 1}
}

func (d *RangeDecoder) nextByte() uint32 {
	if d.pos >= len(d.data) {
		return 0
	}
	b := d.data[d.pos]
	d.pos++
	return uint32(b)
}

// Decode consumes one bit coded at probability p/256 (p in 1..256) and
// returns its value.
func (d *RangeDecoder) Decode(p uint32) bool {
	for d.h < 16384 {
		d.h *= 256
		d.c *= 256
		d.c += d.nextByte()
	}

	t := d.h * p >> 8
	if d.c < t {
		d.h = t
		return false
	}
	d.c -= t
	d.h -= t
	return true
}

// thresholds is the fixed per-exponent probability table the encoder was
// trained against: thresholds[e] is the probability (out of 256) that the
// decoded exponent stops at e, so it continues past e with probability
// 1 - thresholds[e]/256. This table — like the weight blob
// itself — is part of the external, pre-trained artifact (spec section 1
// excludes "the coded-weight blob itself" from the core); it is defined
// here only so the decoder apparatus is complete and testable against a
// synthetic blob.
var thresholds = [18]uint32{
	220, 200, 180, 160, 145, 130, 118, 106, 96,
	86, 78, 70, 63, 57, 51, 46, 41, 37,
}

// NextWeight decodes the next fixed-point weight: a unary-coded exponent
// against thresholds, then (for a nonzero exponent) a sign bit and
// exponent-1 uniform magnitude bits, scaled into the network's fixed-point
// domain and de-quantized.
func (d *RangeDecoder) NextWeight() int32 {
	exp := 0
	for exp < len(thresholds) && d.Decode(thresholds[exp]) {
		exp++
	}
	if exp == 0 {
		return 0
	}

	sign := int32(1)
	if d.Decode(128) {
		sign = -1
	}

	x := int32(0)
	for i := 0; i < exp-1; i++ {
		if d.Decode(128) {
			x |= 1 << i
		}
	}
	x += 1 << (exp - 1)

	return (sign * x << FixedPoint) / Quantize
}

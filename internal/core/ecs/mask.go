package ecs

import "math/bits"

// Mask records which datablob types an entity holds, one bit per TypeIndex.
type Mask []uint64

// NewMask returns an empty mask sized for the registered types.
func NewMask() Mask {
	return make(Mask, (TypeCount()+63)/64)
}

// MaskOf returns a mask with the bits of keys set.
func MaskOf(keys ...TypeKey) Mask {
	m := NewMask()
	for _, k := range keys {
		if idx := k.Index(); idx >= 0 {
			m = m.with(idx)
		}
	}
	return m
}

func (m Mask) with(i TypeIndex) Mask {
	w := int(i) / 64
	for len(m) <= w {
		m = append(m, 0)
	}
	m[w] |= 1 << (uint(i) % 64)
	return m
}

func (m Mask) Set(i TypeIndex) {
	if w := int(i) / 64; w < len(m) {
		m[w] |= 1 << (uint(i) % 64)
	}
}

func (m Mask) Clear(i TypeIndex) {
	if w := int(i) / 64; w < len(m) {
		m[w] &^= 1 << (uint(i) % 64)
	}
}

func (m Mask) Has(i TypeIndex) bool {
	w := int(i) / 64
	return i >= 0 && w < len(m) && m[w]&(1<<(uint(i)%64)) != 0
}

// Contains reports whether every bit of sub is also set in m.
func (m Mask) Contains(sub Mask) bool {
	for w, bitsSub := range sub {
		var have uint64
		if w < len(m) {
			have = m[w]
		}
		if have&bitsSub != bitsSub {
			return false
		}
	}
	return true
}

func (m Mask) Reset() {
	for i := range m {
		m[i] = 0
	}
}

func (m Mask) IsEmpty() bool {
	for _, w := range m {
		if w != 0 {
			return false
		}
	}
	return true
}

func (m Mask) Count() int {
	n := 0
	for _, w := range m {
		n += bits.OnesCount64(w)
	}
	return n
}

func (m Mask) Clone() Mask {
	out := make(Mask, len(m))
	copy(out, m)
	return out
}

// Indices lists the set bits in ascending order.
func (m Mask) Indices() []TypeIndex {
	out := make([]TypeIndex, 0, m.Count())
	for w, word := range m {
		for word != 0 {
			b := bits.TrailingZeros64(word)
			out = append(out, TypeIndex(w*64+b))
			word &= word - 1
		}
	}
	return out
}

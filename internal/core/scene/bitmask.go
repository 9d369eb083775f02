package scene

import "math/bits"

// MaxSlots is the number of dependency slots one component type may declare,
// inherited slots included.
const MaxSlots = 256

// Bitmask tracks slot occupancy: bit i is set while slot i is bound.
type Bitmask [4]uint64

func (m *Bitmask) Set(i int) {
	m[i/64] |= 1 << (uint(i) % 64)
}

func (m *Bitmask) Clear(i int) {
	m[i/64] &^= 1 << (uint(i) % 64)
}

func (m Bitmask) Has(i int) bool {
	return m[i/64]&(1<<(uint(i)%64)) != 0
}

// ContainsAll returns true if all bits set in other are also set in m.
func (m Bitmask) ContainsAll(other Bitmask) bool {
	return (m[0]&other[0] == other[0]) &&
		(m[1]&other[1] == other[1]) &&
		(m[2]&other[2] == other[2]) &&
		(m[3]&other[3] == other[3])
}

// AndNot returns the bits set in m but not in other.
func (m Bitmask) AndNot(other Bitmask) Bitmask {
	return Bitmask{
		m[0] &^ other[0],
		m[1] &^ other[1],
		m[2] &^ other[2],
		m[3] &^ other[3],
	}
}

func (m Bitmask) IsZero() bool {
	return m[0] == 0 && m[1] == 0 && m[2] == 0 && m[3] == 0
}

func (m Bitmask) Count() int {
	return bits.OnesCount64(m[0]) +
		bits.OnesCount64(m[1]) +
		bits.OnesCount64(m[2]) +
		bits.OnesCount64(m[3])
}

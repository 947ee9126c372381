package tensor

import "iter"

const (
	emptySlot       = -1
	minSparseSlots  = 8
	fibonacciFactor = 0x9E3779B97F4A7C15
)

// Sparse stores only non-zero values in an open-addressed hash table
// (linear probing, backward-shift deletion). Writing 0 removes the entry,
// so the table never holds explicit zeros.
//
// Mutating a Sparse while ranging over NonZero is undefined.
type Sparse struct {
	size  int
	keys  []int
	vals  []float64
	count int
	shift uint
}

// NewSparseStorage creates empty sparse storage of the given length.
func NewSparseStorage(size int) *Sparse {
	s := &Sparse{size: size}
	s.resize(minSparseSlots)
	return s
}

// Len returns the number of addressable positions.
func (s *Sparse) Len() int { return s.size }

// Get returns the value at pos or 0 when absent.
func (s *Sparse) Get(pos int) float64 {
	i, ok := s.find(pos)
	if !ok {
		return 0
	}
	return s.vals[i]
}

// Put stores value at pos. A zero value deletes the entry.
func (s *Sparse) Put(pos int, value float64) {
	i, ok := s.find(pos)
	if value == 0 {
		if ok {
			s.remove(i)
		}
		return
	}
	if ok {
		s.vals[i] = value
		return
	}
	if (s.count+1)*2 > len(s.keys) {
		s.resize(len(s.keys) * 2)
		i, _ = s.find(pos)
	}
	s.keys[i] = pos
	s.vals[i] = value
	s.count++
}

// NonZero yields the stored positions in table order.
func (s *Sparse) NonZero() iter.Seq[int] {
	return func(yield func(int) bool) {
		for _, k := range s.keys {
			if k != emptySlot && !yield(k) {
				return
			}
		}
	}
}

// EstimateNonZero returns the exact number of stored entries.
func (s *Sparse) EstimateNonZero() int { return s.count }

// ZeroCopy returns empty sparse storage.
func (s *Sparse) ZeroCopy(size int) Storage { return NewSparseStorage(size) }

func (s *Sparse) home(pos int) int {
	return int((uint64(pos) * fibonacciFactor) >> s.shift)
}

// find returns the slot holding pos, or the empty slot where it would go.
func (s *Sparse) find(pos int) (int, bool) {
	mask := len(s.keys) - 1
	for i := s.home(pos); ; i = (i + 1) & mask {
		switch s.keys[i] {
		case pos:
			return i, true
		case emptySlot:
			return i, false
		}
	}
}

func (s *Sparse) remove(i int) {
	mask := len(s.keys) - 1
	for j := (i + 1) & mask; s.keys[j] != emptySlot; j = (j + 1) & mask {
		k := s.home(s.keys[j])
		// Leave entries whose home lies cyclically in (i, j].
		if i <= j {
			if i < k && k <= j {
				continue
			}
		} else if i < k || k <= j {
			continue
		}
		s.keys[i], s.vals[i] = s.keys[j], s.vals[j]
		i = j
	}
	s.keys[i], s.vals[i] = emptySlot, 0
	s.count--
}

func (s *Sparse) resize(slots int) {
	oldKeys, oldVals := s.keys, s.vals
	s.keys = make([]int, slots)
	s.vals = make([]float64, slots)
	for i := range s.keys {
		s.keys[i] = emptySlot
	}
	bits := uint(0)
	for 1<<bits < slots {
		bits++
	}
	s.shift = 64 - bits
	for i, k := range oldKeys {
		if k == emptySlot {
			continue
		}
		j, _ := s.find(k)
		s.keys[j], s.vals[j] = k, oldVals[i]
	}
}

package tensor

import "iter"

// Dense is contiguous storage. Every position is materialised.
type Dense struct {
	data []float64
}

// NewDenseStorage wraps data without copying.
func NewDenseStorage(data []float64) *Dense {
	return &Dense{data: data}
}

// Len returns the number of positions.
func (d *Dense) Len() int { return len(d.data) }

// Get returns the value at pos.
func (d *Dense) Get(pos int) float64 { return d.data[pos] }

// Put stores value at pos.
func (d *Dense) Put(pos int, value float64) { d.data[pos] = value }

// NonZero yields every position holding a non-zero value.
func (d *Dense) NonZero() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i, v := range d.data {
			if v != 0 && !yield(i) {
				return
			}
		}
	}
}

// EstimateNonZero returns the storage length; dense storage is assumed full.
func (d *Dense) EstimateNonZero() int { return len(d.data) }

// ZeroCopy returns a new heap-allocated dense storage.
func (d *Dense) ZeroCopy(size int) Storage {
	return &Dense{data: make([]float64, size)}
}

// Data exposes the backing slice.
func (d *Dense) Data() []float64 { return d.data }

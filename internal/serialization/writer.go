package serialization

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"time"

	"github.com/born-ml/neurograph/internal/tensor"
	"github.com/pkg/errors"
)

const libraryVersion = "0.1.0"

// Named pairs a tensor with the name it is stored under.
type Named struct {
	Name  string
	Value *tensor.Tensor
}

// Write encodes tensors, in order, as a .born checkpoint. Header fields
// Tensors, FormatVersion, Version and CreatedAt are filled in by Write.
func Write(w io.Writer, tensors []Named, header Header) error {
	if len(tensors) > MaxTensorCount {
		return errors.Wrapf(ErrTooManyTensors, "got %d, max %d", len(tensors), MaxTensorCount)
	}

	header.FormatVersion = FormatVersion
	header.Version = libraryVersion
	header.CreatedAt = time.Now().UTC()
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	// Tensor table and data section.
	seen := make(map[string]bool, len(tensors))
	header.Tensors = make([]TensorMeta, 0, len(tensors))
	var data []byte
	flags := uint32(0)
	for _, nt := range tensors {
		if err := ValidateTensorName(nt.Name); err != nil {
			return err
		}
		if seen[nt.Name] {
			return errors.Wrapf(ErrDuplicateTensor, "%q", nt.Name)
		}
		seen[nt.Name] = true

		meta := TensorMeta{
			Name:   nt.Name,
			DType:  DTypeFloat64,
			Shape:  shapeOf(nt.Value),
			Offset: int64(len(data)),
			Size:   int64(nt.Value.Size() * ElementSize),
		}
		if _, ok := nt.Value.Storage().(*tensor.Sparse); ok {
			meta.Sparse = true
			flags |= FlagHasSparse
		}
		header.Tensors = append(header.Tensors, meta)
		for _, v := range nt.Value.Values() {
			data = binary.LittleEndian.AppendUint64(data, math.Float64bits(v))
		}
	}
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return errors.Wrap(err, "failed to marshal header")
	}
	checksum := ComputeChecksum(data)

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], uint32(FormatVersion))
	binary.LittleEndian.PutUint32(fixed[8:12], flags)
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(len(data)))
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	if _, err := w.Write(fixed); err != nil {
		return errors.Wrap(err, "failed to write fixed header")
	}
	if _, err := w.Write(headerJSON); err != nil {
		return errors.Wrap(err, "failed to write header JSON")
	}
	if pad := padding(int64(len(headerJSON))); pad > 0 {
		if _, err := w.Write(make([]byte, pad)); err != nil {
			return errors.Wrap(err, "failed to write padding")
		}
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "failed to write tensor data")
	}
	return nil
}

// padding returns the bytes needed after a JSON header of the given size
// to align the data section to HeaderAlignment.
func padding(headerSize int64) int64 {
	pos := int64(FixedHeaderSize) + headerSize
	return (HeaderAlignment - pos%HeaderAlignment) % HeaderAlignment
}

func shapeOf(t *tensor.Tensor) []int {
	if t.IsMatrix() {
		return []int{t.Rows(), t.Cols()}
	}
	return []int{t.Size()}
}

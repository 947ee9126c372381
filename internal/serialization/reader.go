package serialization

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"math"

	"github.com/born-ml/neurograph/internal/tensor"
	"github.com/pkg/errors"
)

// ReaderOptions configures Read.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Validation strictness level
}

// Checkpoint is a decoded .born file.
type Checkpoint struct {
	Header  Header
	Flags   uint32
	Tensors map[string]*tensor.Tensor
}

// Names returns the tensor names in file order.
func (c *Checkpoint) Names() []string {
	names := make([]string, len(c.Header.Tensors))
	for i, meta := range c.Header.Tensors {
		names[i] = meta.Name
	}
	return names
}

// Read decodes a .born checkpoint from r.
func Read(r io.Reader, opts ReaderOptions) (*Checkpoint, error) {
	fixed := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, errors.Wrap(err, "failed to read fixed header")
	}
	if string(fixed[0:4]) != MagicBytes {
		return nil, ErrInvalidMagic
	}
	if v := binary.LittleEndian.Uint32(fixed[4:8]); v != FormatVersion {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "got %d, expected %d", v, FormatVersion)
	}
	flags := binary.LittleEndian.Uint32(fixed[8:12])
	headerSize := binary.LittleEndian.Uint64(fixed[16:24])
	dataSize := binary.LittleEndian.Uint64(fixed[24:32])
	var stored [32]byte
	copy(stored[:], fixed[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if headerSize > MaxHeaderSize {
		return nil, ErrHeaderTooLarge
	}
	if dataSize > MaxDataSize {
		return nil, &ValidationError{Type: "data_too_large", Details: "data section exceeds limit"}
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, errors.Wrap(err, "failed to read header JSON")
	}
	ckpt := &Checkpoint{Flags: flags, Tensors: make(map[string]*tensor.Tensor)}
	if err := json.Unmarshal(headerJSON, &ckpt.Header); err != nil {
		return nil, errors.Wrap(err, "failed to parse header JSON")
	}

	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize
	if _, err := io.CopyN(io.Discard, r, padding(int64(headerSize))); err != nil {
		return nil, errors.Wrap(err, "failed to skip padding")
	}
	data := make([]byte, dataSize)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, errors.Wrap(err, "failed to read tensor data")
	}

	if !opts.SkipChecksumValidation {
		if err := ValidateChecksum(ComputeChecksum(data), stored); err != nil {
			return nil, err
		}
	}
	//nolint:gosec // G115: dataSize is bounded by MaxDataSize
	if err := ValidateHeader(&ckpt.Header, int64(dataSize), opts.ValidationLevel); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}

	for _, meta := range ckpt.Header.Tensors {
		t, err := decode(meta, data)
		if err != nil {
			return nil, err
		}
		ckpt.Tensors[meta.Name] = t
	}
	return ckpt, nil
}

func decode(meta TensorMeta, data []byte) (*tensor.Tensor, error) {
	n := meta.Elements()
	if int64(n*ElementSize) != meta.Size || meta.Offset < 0 || meta.Offset+meta.Size > int64(len(data)) {
		return nil, &ValidationError{Type: "bad_layout", Tensor: meta.Name, Details: "shape, size and offset disagree"}
	}
	var t *tensor.Tensor
	switch {
	case len(meta.Shape) == 2 && meta.Sparse:
		t = tensor.NewSparseMatrix(meta.Shape[0], meta.Shape[1])
	case len(meta.Shape) == 2:
		t = tensor.NewMatrix(meta.Shape[0], meta.Shape[1])
	case meta.Sparse:
		t = tensor.NewSparse(n)
	default:
		t = tensor.New(n)
	}
	raw := data[meta.Offset : meta.Offset+meta.Size]
	err := tensor.Try(func() {
		for i := 0; i < n; i++ {
			if v := math.Float64frombits(binary.LittleEndian.Uint64(raw[i*ElementSize:])); v != 0 {
				t.Put(i, v)
			}
		}
	})
	if err != nil {
		return nil, errors.Wrapf(err, "tensor %q", meta.Name)
	}
	return t, nil
}

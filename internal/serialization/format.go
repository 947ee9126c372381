package serialization

import "time"

// Format constants.
const (
	MagicBytes      = "BORN"
	FormatVersion   = 2    // Fixed header with SHA-256 checksum
	HeaderAlignment = 64   // Align tensor data to 64 bytes
	FixedHeaderSize = 64   // Fixed header size (0x40 bytes)
	ChecksumSize    = 32   // SHA-256 checksum size (32 bytes)
	ChecksumOffset  = 0x20 // Checksum offset in the fixed header
	ElementSize     = 8    // Bytes per float64 element
)

// DTypeFloat64 is the only element type written.
const DTypeFloat64 = "float64"

// Flags for the .born format.
const (
	FlagHasMetadata uint32 = 1 << 2 // bit 2: custom metadata included
	FlagHasSparse   uint32 = 1 << 3 // bit 3: at least one tensor was sparse
)

// Header represents the JSON header in a .born file.
type Header struct {
	FormatVersion int               `json:"format_version"`       // Version of the .born format
	Version       string            `json:"version"`              // Library version that wrote the file
	RunID         string            `json:"run_id,omitempty"`     // Model run that produced the tensors
	CreatedAt     time.Time         `json:"created_at"`           // When the file was created
	Tensors       []TensorMeta      `json:"tensors"`              // Tensor metadata
	Metadata      map[string]string `json:"metadata"`             // Custom metadata
	Checkpoint    *CheckpointMeta   `json:"checkpoint,omitempty"` // Training state (optional)
}

// CheckpointMeta contains training state information for checkpoints.
type CheckpointMeta struct {
	Epoch int     `json:"epoch"` // Training epoch number
	Loss  float64 `json:"loss"`  // Validation loss at checkpoint
}

// TensorMeta describes a tensor in the .born file.
type TensorMeta struct {
	Name   string `json:"name"`             // Tensor name (e.g., "hidden.weight")
	DType  string `json:"dtype"`            // Always "float64"
	Shape  []int  `json:"shape"`            // [size] for flat tensors, [rows, cols] for matrices
	Sparse bool   `json:"sparse,omitempty"` // Restore into sparse storage
	Offset int64  `json:"offset"`           // Offset in the data section
	Size   int64  `json:"size"`             // Size in bytes
}

// Elements returns the element count implied by the shape.
func (m TensorMeta) Elements() int {
	n := 1
	for _, d := range m.Shape {
		n *= d
	}
	return n
}

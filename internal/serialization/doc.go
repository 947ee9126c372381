// Package serialization provides the .born checkpoint format for parameter
// tensors.
//
//	Format Structure:
//	  [64 bytes: fixed header]
//	    0x00-0x03 Magic "BORN"
//	    0x04-0x07 Version (uint32 LE)
//	    0x08-0x0B Flags (uint32 LE)
//	    0x0C-0x0F Reserved
//	    0x10-0x17 Header size (uint64 LE)
//	    0x18-0x1F Data size (uint64 LE)
//	    0x20-0x3F SHA-256 of the data section
//	  [Header: JSON metadata]
//	  [Padding to a 64-byte boundary]
//	  [Tensor data: float64 LE, column-major for matrices]
//
// Tensors are written in the order given, so a checkpoint of the same
// graph is byte-identical apart from the creation time.
//
// Example usage:
//
//	var buf bytes.Buffer
//	err := serialization.Write(&buf, []serialization.Named{{Name: "w", Value: w}}, serialization.Header{})
//	...
//	ckpt, err := serialization.Read(&buf, serialization.ReaderOptions{})
//	w2 := ckpt.Tensors["w"]
package serialization

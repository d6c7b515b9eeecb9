// Package serialization provides the native .born container for Born model records.
//
// The .born format is a simple binary format designed for Born parameters:
//
//	Format Structure (v2):
//	  [64 bytes: fixed header]
//	    magic "BORN", version, flags, header size, data size, SHA-256 of data
//	  [Header: JSON metadata]
//	  [Tensor data: raw little-endian bytes, 64-byte aligned]
//
// Version 1 files (20-byte fixed header, no checksum) are still readable.
//
// The format supports:
//   - Data types float16, float32, float64, int16, int32, int64 and bool
//   - Arbitrary tensor shapes, in a fixed tensor order
//   - Parameter identities and kinds per tensor
//   - Header validation against malformed or hostile files
//
// Example usage:
//
//	entries := []serialization.Entry{{Name: "weight", DType: tensor.Float16, Shape: []int{3, 4}, Data: data}}
//	err := serialization.WriteFile("model.born", entries, serialization.Header{ModelType: "Linear"})
//
//	file, err := serialization.ReadFile("model.born", serialization.DefaultReaderOptions())
//	for _, e := range file.Entries {
//	    fmt.Println(e.Name, e.DType, e.Shape)
//	}
package serialization

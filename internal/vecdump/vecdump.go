// Package vecdump reads and writes the memory-mappable binary vector+hash
// dump format described in spec.md §4.E:
//
//	Header (16 bytes): u32 num_entries, u32 hash_size_bytes,
//	                   u32 vector_size_bytes, u32 vector_dimensions
//	Vectors: num_entries × vector_dimensions × f32
//	Hashes:  num_entries × u64
//
// all little-endian. Write promotes a temp file into place atomically;
// Read memory-maps the file read-only via golang.org/x/exp/mmap, copies
// its payload into Go slices, and returns them through a scoped Handle.
package vecdump

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/GonzoDMX/rag-anywhere/internal/errs"
	"golang.org/x/exp/mmap"
)

const (
	headerSize     = 16
	hashSizeBytes  = 8
	floatSizeBytes = 4
)

// Header mirrors the 16-byte on-disk header.
type Header struct {
	NumEntries       uint32
	HashSizeBytes    uint32
	VectorSizeBytes  uint32
	VectorDimensions uint32
}

// Write serializes vectors and hashes for one document to path, creating
// the parent directory if needed and promoting a temp file into place so
// a crash mid-write never leaves a truncated dump visible to readers.
func Write(path string, vectors [][]float32, hashes []uint64) error {
	if len(vectors) != len(hashes) {
		return errs.New(errs.DimensionMismatch, "vector and hash count mismatch")
	}

	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
		for _, v := range vectors {
			if len(v) != dim {
				return errs.New(errs.DimensionMismatch, "inconsistent vector dimensions in dump")
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.Wrap(errs.IoError, "create dump directory", err)
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return errs.Wrap(errs.IoError, "create temp dump file", err)
	}
	defer os.Remove(tmpPath) // no-op once renamed

	if err := writeAll(f, vectors, hashes, dim); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return errs.Wrap(errs.IoError, "close temp dump file", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return errs.Wrap(errs.IoError, "promote temp dump file", err)
	}

	return nil
}

func writeAll(f *os.File, vectors [][]float32, hashes []uint64, dim int) error {
	header := Header{
		NumEntries:       uint32(len(vectors)),
		HashSizeBytes:    hashSizeBytes,
		VectorSizeBytes:  uint32(dim * floatSizeBytes),
		VectorDimensions: uint32(dim),
	}

	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(buf[0:4], header.NumEntries)
	binary.LittleEndian.PutUint32(buf[4:8], header.HashSizeBytes)
	binary.LittleEndian.PutUint32(buf[8:12], header.VectorSizeBytes)
	binary.LittleEndian.PutUint32(buf[12:16], header.VectorDimensions)
	if _, err := f.Write(buf); err != nil {
		return errs.Wrap(errs.IoError, "write dump header", err)
	}

	floatBuf := make([]byte, floatSizeBytes)
	for _, v := range vectors {
		for _, f32 := range v {
			binary.LittleEndian.PutUint32(floatBuf, math.Float32bits(f32))
			if _, err := f.Write(floatBuf); err != nil {
				return errs.Wrap(errs.IoError, "write dump vectors", err)
			}
		}
	}

	hashBuf := make([]byte, hashSizeBytes)
	for _, h := range hashes {
		binary.LittleEndian.PutUint64(hashBuf, h)
		if _, err := f.Write(hashBuf); err != nil {
			return errs.Wrap(errs.IoError, "write dump hashes", err)
		}
	}

	return nil
}

// Handle is a scoped, memory-mapped view of one dump file. Vectors and
// Hashes return slices copied out of the mapping when Read parsed it;
// they do not alias the mapping and stay valid after Release.
type Handle struct {
	Header  Header
	mapped  *mmap.ReaderAt
	vectors [][]float32
	hashes  []uint64
}

// Read memory-maps path read-only and parses its header, vectors, and
// hashes. The caller must call Release on the returned Handle on every
// exit path.
func Read(path string) (*Handle, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.IoError, "mmap open dump", err)
	}

	h, err := parse(r)
	if err != nil {
		r.Close()
		return nil, err
	}

	return h, nil
}

func parse(r *mmap.ReaderAt) (*Handle, error) {
	if r.Len() < headerSize {
		return nil, errs.New(errs.ParseError, "dump file shorter than header")
	}

	headerBuf := make([]byte, headerSize)
	if _, err := r.ReadAt(headerBuf, 0); err != nil {
		return nil, errs.Wrap(errs.IoError, "read dump header", err)
	}

	header := Header{
		NumEntries:       binary.LittleEndian.Uint32(headerBuf[0:4]),
		HashSizeBytes:    binary.LittleEndian.Uint32(headerBuf[4:8]),
		VectorSizeBytes:  binary.LittleEndian.Uint32(headerBuf[8:12]),
		VectorDimensions: binary.LittleEndian.Uint32(headerBuf[12:16]),
	}

	if header.HashSizeBytes != hashSizeBytes {
		return nil, errs.New(errs.ParseError, "unexpected hash_size_bytes in dump header")
	}
	if header.VectorSizeBytes != header.VectorDimensions*floatSizeBytes {
		return nil, errs.New(errs.ParseError, "vector_size_bytes inconsistent with vector_dimensions")
	}

	expectedLen := int64(headerSize) + int64(header.NumEntries)*(int64(header.VectorSizeBytes)+hashSizeBytes)
	if int64(r.Len()) != expectedLen {
		return nil, errs.New(errs.ParseError, fmt.Sprintf("dump file length %d does not match header (want %d)", r.Len(), expectedLen))
	}

	dim := int(header.VectorDimensions)
	n := int(header.NumEntries)

	vectors := make([][]float32, n)
	vecBuf := make([]byte, floatSizeBytes)
	offset := int64(headerSize)
	for i := 0; i < n; i++ {
		v := make([]float32, dim)
		for d := 0; d < dim; d++ {
			if _, err := r.ReadAt(vecBuf, offset); err != nil {
				return nil, errs.Wrap(errs.IoError, "read dump vector payload", err)
			}
			v[d] = math.Float32frombits(binary.LittleEndian.Uint32(vecBuf))
			offset += floatSizeBytes
		}
		vectors[i] = v
	}

	hashes := make([]uint64, n)
	hashBuf := make([]byte, hashSizeBytes)
	for i := 0; i < n; i++ {
		if _, err := r.ReadAt(hashBuf, offset); err != nil {
			return nil, errs.Wrap(errs.IoError, "read dump hash payload", err)
		}
		hashes[i] = binary.LittleEndian.Uint64(hashBuf)
		offset += hashSizeBytes
	}

	return &Handle{Header: header, mapped: r, vectors: vectors, hashes: hashes}, nil
}

// Vectors returns the dump's vector payload in on-disk order.
func (h *Handle) Vectors() [][]float32 { return h.vectors }

// Hashes returns the dump's hash payload in on-disk order, parallel to
// Vectors.
func (h *Handle) Hashes() []uint64 { return h.hashes }

// Release unmaps the file and closes its descriptor. It is safe to call
// more than once.
func (h *Handle) Release() error {
	if h.mapped == nil {
		return nil
	}
	err := h.mapped.Close()
	h.mapped = nil
	if err != nil {
		return errs.Wrap(errs.IoError, "unmap dump file", err)
	}
	return nil
}

package models

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Float32ToBytes and BytesToFloat32 are the wire format the SQLite
// backend's embeddings.embedding BLOB column stores vectors in, since
// SQLite (unlike Postgres/pgvector) has no native vector column type.

// Float32ToBytes packs floats as consecutive little-endian float32s.
// binary.Write never fails writing to a bytes.Buffer, so there is no
// error to report.
func Float32ToBytes(floats []float32) []byte {
	buf := new(bytes.Buffer)
	for _, f := range floats {
		binary.Write(buf, binary.LittleEndian, f)
	}
	return buf.Bytes()
}

// BytesToFloat32 reverses Float32ToBytes. data whose length isn't a
// multiple of 4 bytes is malformed and yields nil.
func BytesToFloat32(data []byte) []float32 {
	if len(data)%4 != 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := 0; i < len(floats); i++ {
		bits := binary.LittleEndian.Uint32(data[i*4 : (i+1)*4])
		floats[i] = math.Float32frombits(bits)
	}
	return floats
}

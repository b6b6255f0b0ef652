// Package bin has the big-endian helpers used by the wire format.
package bin

import "encoding/binary"

func PutU16BE(dst []byte, v uint16) { binary.BigEndian.PutUint16(dst, v) }
func U16BE(src []byte) uint16       { return binary.BigEndian.Uint16(src) }

func PutU32BE(dst []byte, v uint32) { binary.BigEndian.PutUint32(dst, v) }
func U32BE(src []byte) uint32       { return binary.BigEndian.Uint32(src) }

// PutU24BE writes the low 24 bits of v. Frame headers carry the body length
// in a 3-byte field.
func PutU24BE(dst []byte, v uint32) {
	dst[0] = byte(v >> 16)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v)
}

// U24BE reads a 3-byte big-endian value.
func U24BE(src []byte) uint32 {
	return uint32(src[0])<<16 | uint32(src[1])<<8 | uint32(src[2])
}

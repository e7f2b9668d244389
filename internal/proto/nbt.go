package proto

import (
	"encoding/binary"
	"math"
)

// A minimal, write-only named-binary-tag encoder: just enough to
// synthesize the fallback dimension codec/type compounds the Lobby
// strategy needs when the prober never captured a real one from the
// backend. It intentionally does not support every NBT tag type —
// only what a flat, single-dimension codec requires.
type nbtWriter struct {
	buf []byte
}

const (
	tagEnd     = 0x00
	tagByte    = 0x01
	tagInt     = 0x03
	tagLong    = 0x04
	tagFloat   = 0x05
	tagDouble  = 0x06
	tagString  = 0x08
	tagList    = 0x09
	tagCompound = 0x0A
)

func newNBTWriter() *nbtWriter { return &nbtWriter{} }

func (w *nbtWriter) writeTagHeader(tag byte, name string) {
	w.buf = append(w.buf, tag)
	w.buf = append(w.buf, byte(len(name)>>8), byte(len(name)))
	w.buf = append(w.buf, []byte(name)...)
}

func (w *nbtWriter) Byte(name string, v int8) {
	w.writeTagHeader(tagByte, name)
	w.buf = append(w.buf, byte(v))
}

func (w *nbtWriter) Int(name string, v int32) {
	w.writeTagHeader(tagInt, name)
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	w.buf = append(w.buf, b[:]...)
}

func (w *nbtWriter) Long(name string, v int64) {
	w.writeTagHeader(tagLong, name)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	w.buf = append(w.buf, b[:]...)
}

func (w *nbtWriter) Float(name string, v float32) {
	w.writeTagHeader(tagFloat, name)
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], math.Float32bits(v))
	w.buf = append(w.buf, b[:]...)
}

func (w *nbtWriter) Double(name string, v float64) {
	w.writeTagHeader(tagDouble, name)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	w.buf = append(w.buf, b[:]...)
}

func (w *nbtWriter) String(name, v string) {
	w.writeTagHeader(tagString, name)
	w.buf = append(w.buf, byte(len(v)>>8), byte(len(v)))
	w.buf = append(w.buf, []byte(v)...)
}

// BeginCompound opens a named compound; every call must be matched by
// EndCompound.
func (w *nbtWriter) BeginCompound(name string) {
	w.writeTagHeader(tagCompound, name)
}

func (w *nbtWriter) EndCompound() {
	w.buf = append(w.buf, tagEnd)
}

// BeginListOfCompounds opens a list tag whose elements are compounds.
func (w *nbtWriter) BeginListOfCompounds(name string, count int32) {
	w.writeTagHeader(tagList, name)
	w.buf = append(w.buf, tagCompound)
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(count))
	w.buf = append(w.buf, b[:]...)
}

func (w *nbtWriter) Bytes() []byte { return w.buf }

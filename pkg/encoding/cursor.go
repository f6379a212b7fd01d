package encoding

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// Scalar is the set of fixed-size values the cursors read and write. Every
// scalar is aligned to its own size relative to the start of its buffer.
// Floats must be the predeclared types so their bits can be taken exactly.
type Scalar interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~int8 | ~int16 | ~int32 | ~int64 | float32 | float64
}

// ByteOrder is the order of every multi-byte scalar in encoded buffers.
var ByteOrder = binary.LittleEndian

// SizeOf returns the encoded size (and alignment) of T.
func SizeOf[T Scalar]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

func padding(offset, align int) int {
	if align <= 1 {
		return 0
	}
	return (align - offset%align) % align
}

// Sizer accumulates the exact size of a value during the size pass. It must
// visit fields in the same order and with the same alignment the Writer uses.
type Sizer struct {
	n int
}

func (s *Sizer) Align(align int) {
	s.n += padding(s.n, align)
}

// Add accounts for size bytes aligned to align.
func (s *Sizer) Add(size, align int) {
	s.Align(align)
	s.n += size
}

func (s *Sizer) Bool() { s.n++ }

// String accounts for a u64 length prefix followed by the bytes of str.
func (s *Sizer) String(str string) {
	SizeAligned[uint64](s)
	s.n += len(str)
}

// Bytes accounts for a u64 length prefix followed by b.
func (s *Sizer) Bytes(b []byte) {
	SizeAligned[uint64](s)
	s.n += len(b)
}

// Raw accounts for n unaligned bytes with no prefix.
func (s *Sizer) Raw(n int) { s.n += n }

func (s *Sizer) Len() int { return s.n }

// SizeAligned accounts for one scalar of type T.
func SizeAligned[T Scalar](s *Sizer) {
	s.Add(SizeOf[T](), SizeOf[T]())
}

// Writer is a write cursor over a Buffer sized by a Sizer. Writing past the
// end means the size pass and the write pass disagree, which is an
// internal-consistency failure: the Writer panics with an *OverflowError.
type Writer struct {
	buf []byte
	pos int
}

func NewWriter(b Buffer) *Writer {
	return &Writer{buf: b.data}
}

func (w *Writer) Offset() int { return w.pos }

// Len is the size of the underlying buffer.
func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) reserve(n int) []byte {
	if n < 0 || w.pos+n > len(w.buf) {
		panic(&OverflowError{Op: "write", Offset: w.pos, Size: n, Len: len(w.buf)})
	}
	out := w.buf[w.pos : w.pos+n]
	w.pos += n
	return out
}

// Align writes zero padding up to the next multiple of align.
func (w *Writer) Align(align int) {
	p := w.reserve(padding(w.pos, align))
	for i := range p {
		p[i] = 0
	}
}

func (w *Writer) WriteBool(v bool) {
	p := w.reserve(1)
	if v {
		p[0] = 1
	} else {
		p[0] = 0
	}
}

func (w *Writer) WriteString(str string) {
	WriteAligned(w, uint64(len(str)))
	copy(w.reserve(len(str)), str)
}

func (w *Writer) WriteBytes(b []byte) {
	WriteAligned(w, uint64(len(b)))
	copy(w.reserve(len(b)), b)
}

// WriteRaw copies b with no length prefix or alignment.
func (w *Writer) WriteRaw(b []byte) {
	copy(w.reserve(len(b)), b)
}

// Finish verifies the cursor landed exactly on the end of the buffer.
func (w *Writer) Finish() error {
	if w.pos != len(w.buf) {
		return &SizeMismatchError{Written: w.pos, Allocated: len(w.buf)}
	}
	return nil
}

// WriteAligned pads to the alignment of T and writes v.
func WriteAligned[T Scalar](w *Writer, v T) {
	size := SizeOf[T]()
	w.Align(size)
	p := w.reserve(size)
	switch size {
	case 1:
		p[0] = byte(bitsOf(v))
	case 2:
		ByteOrder.PutUint16(p, uint16(bitsOf(v)))
	case 4:
		ByteOrder.PutUint32(p, uint32(bitsOf(v)))
	case 8:
		ByteOrder.PutUint64(p, bitsOf(v))
	}
}

// Reader is a bounds-checked read cursor. Every read that would pass the end
// of the buffer fails with an *OverflowError and leaves the cursor unchanged.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(b Buffer) *Reader {
	return &Reader{buf: b.data}
}

func NewReaderBytes(b []byte) *Reader {
	return &Reader{buf: b}
}

func (r *Reader) Offset() int { return r.pos }

func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Done reports whether the cursor reached the end of the buffer.
func (r *Reader) Done() bool { return r.pos >= len(r.buf) }

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || n > len(r.buf)-r.pos {
		return nil, &OverflowError{Op: "read", Offset: r.pos, Size: n, Len: len(r.buf)}
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *Reader) Align(align int) error {
	_, err := r.take(padding(r.pos, align))
	return err
}

// ReadRaw returns the next n bytes with no prefix or alignment. The slice
// aliases the reader's buffer.
func (r *Reader) ReadRaw(n int) ([]byte, error) {
	return r.take(n)
}

func (r *Reader) ReadBool() (bool, error) {
	p, err := r.take(1)
	if err != nil {
		return false, err
	}
	return p[0] != 0, nil
}

func (r *Reader) length() (int, error) {
	start := r.pos
	n, err := ReadAligned[uint64](r)
	if err != nil {
		return 0, err
	}
	if n > uint64(r.Remaining()) {
		r.pos = start
		return 0, &OverflowError{Op: "read", Offset: r.pos, Size: int(min(n, math.MaxInt32)), Len: len(r.buf)}
	}
	return int(n), nil
}

func (r *Reader) ReadString() (string, error) {
	n, err := r.length()
	if err != nil {
		return "", err
	}
	p, err := r.take(n)
	if err != nil {
		return "", err
	}
	return string(p), nil
}

// ReadBytes reads a length-prefixed blob into a freshly owned slice. An
// empty blob reads as nil.
func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.length()
	if err != nil {
		return nil, err
	}
	p, err := r.take(n)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]byte, n)
	copy(out, p)
	return out, nil
}

// ReadSpan reads a length prefix and returns the offset and length of the
// blob that follows, skipping over it without copying.
func (r *Reader) ReadSpan() (offset, length int, err error) {
	n, err := r.length()
	if err != nil {
		return 0, 0, err
	}
	offset = r.pos
	if _, err = r.take(n); err != nil {
		return 0, 0, err
	}
	return offset, n, nil
}

// ReadAligned skips padding up to the alignment of T and reads one T.
func ReadAligned[T Scalar](r *Reader) (T, error) {
	var zero T
	size := SizeOf[T]()
	start := r.pos
	if err := r.Align(size); err != nil {
		return zero, err
	}
	p, err := r.take(size)
	if err != nil {
		r.pos = start
		return zero, err
	}
	switch size {
	case 1:
		return fromBits[T](uint64(p[0])), nil
	case 2:
		return fromBits[T](uint64(ByteOrder.Uint16(p))), nil
	case 4:
		return fromBits[T](uint64(ByteOrder.Uint32(p))), nil
	default:
		return fromBits[T](ByteOrder.Uint64(p)), nil
	}
}

// bitsOf returns the raw bit pattern of v widened to 64 bits.
func bitsOf[T Scalar](v T) uint64 {
	switch x := any(v).(type) {
	case float32:
		return uint64(math.Float32bits(x))
	case float64:
		return math.Float64bits(x)
	}
	return uint64(v)
}

func fromBits[T Scalar](bits uint64) T {
	var zero T
	switch any(zero).(type) {
	case float32:
		return any(math.Float32frombits(uint32(bits))).(T)
	case float64:
		return any(math.Float64frombits(bits)).(T)
	}
	return T(bits)
}

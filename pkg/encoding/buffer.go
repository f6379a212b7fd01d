package encoding

// Buffer is an owned, length-known byte region. Exactly one owner holds a
// Buffer at a time; ownership moves with the value and ends with Release.
type Buffer struct {
	data []byte
}

// Allocate returns a zeroed Buffer of exactly size bytes.
func Allocate(size int) Buffer {
	if size < 0 {
		panic(ErrNegativeLength)
	}
	return Buffer{data: make([]byte, size)}
}

// Wrap takes ownership of data. The caller must not keep using it.
func Wrap(data []byte) Buffer {
	return Buffer{data: data}
}

// Copy returns a Buffer holding a private copy of data.
func Copy(data []byte) Buffer {
	if data == nil {
		return Buffer{}
	}
	b := Allocate(len(data))
	copy(b.data, data)
	return b
}

func (b Buffer) Bytes() []byte { return b.data }

func (b Buffer) Len() int { return len(b.data) }

// Populated reports whether the buffer holds data.
func (b Buffer) Populated() bool { return b.data != nil }

// Release drops the buffer's bytes. Releasing twice is a no-op.
func (b *Buffer) Release() {
	b.data = nil
}

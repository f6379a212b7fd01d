package encoding

// Encodable is implemented by values that describe their own aligned layout.
// SizeTo and WriteTo must visit the same fields in the same order.
type Encodable interface {
	SizeTo(s *Sizer)
	WriteTo(w *Writer)
}

// Marshal runs the two-pass protocol for v.
func Marshal(v Encodable) (Buffer, error) {
	return Encode(v.SizeTo, v.WriteTo)
}

// Encode computes the exact size with size, allocates a single buffer of that
// size, fills it with write and checks the cursor landed on the end.
func Encode(size func(*Sizer), write func(*Writer)) (Buffer, error) {
	var s Sizer
	size(&s)

	buf := Allocate(s.Len())
	w := NewWriter(buf)
	write(w)
	if err := w.Finish(); err != nil {
		buf.Release()
		return Buffer{}, err
	}
	return buf, nil
}

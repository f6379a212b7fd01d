package encoding

import (
	"errors"
	"fmt"
)

var (
	// ErrOverflow reports a cursor that would move past the end of its buffer.
	ErrOverflow = errors.New("buffer overflow")
	// ErrSizeMismatch reports a write pass that finished before the end of the
	// buffer sized for it.
	ErrSizeMismatch = errors.New("encoded size does not match computed size")
	// ErrNegativeLength reports a length that cannot be represented.
	ErrNegativeLength = errors.New("negative length")
)

// OverflowError describes a single out-of-bounds cursor access.
type OverflowError struct {
	Op     string
	Offset int
	Size   int
	Len    int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("%s of %d bytes at offset %d exceeds buffer of %d bytes", e.Op, e.Size, e.Offset, e.Len)
}

// Is makes errors.Is(err, ErrOverflow) hold for every OverflowError.
func (e *OverflowError) Is(target error) bool {
	return target == ErrOverflow
}

// SizeMismatchError reports a write pass that stopped short of the buffer end.
type SizeMismatchError struct {
	Written   int
	Allocated int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("wrote %d of %d allocated bytes", e.Written, e.Allocated)
}

func (e *SizeMismatchError) Is(target error) bool {
	return target == ErrSizeMismatch
}

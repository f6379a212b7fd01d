package asset

import (
	"encoding/binary"
	"strconv"

	"github.com/google/uuid"
)

// Handle uniquely identifies one asset or entity within a project.
type Handle uint64

// NullHandle never refers to anything.
const NullHandle Handle = 0

// NewHandle returns a fresh random handle. It never returns NullHandle.
func NewHandle() Handle {
	for {
		id := uuid.New()
		if h := Handle(binary.LittleEndian.Uint64(id[:8]) ^ binary.LittleEndian.Uint64(id[8:])); h != NullHandle {
			return h
		}
	}
}

func (h Handle) IsNull() bool { return h == NullHandle }

func (h Handle) String() string {
	return strconv.FormatUint(uint64(h), 10)
}

// ParseHandle accepts decimal or 0x-prefixed hexadecimal text.
func ParseHandle(text string) (Handle, error) {
	v, err := strconv.ParseUint(text, 0, 64)
	if err != nil {
		return NullHandle, err
	}
	return Handle(v), nil
}

package asset

import "fmt"

// Type is the small integer tag that selects an asset's encode/decode routine.
type Type uint16

const (
	TypeNone Type = iota
	TypeScene
	TypeTexture2D
	TypeFont
	TypeAudio
	TypeScript
)

// Types lists every concrete asset type in tag order.
var Types = []Type{TypeScene, TypeTexture2D, TypeFont, TypeAudio, TypeScript}

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "None"
	case TypeScene:
		return "Scene"
	case TypeTexture2D:
		return "Texture2D"
	case TypeFont:
		return "Font"
	case TypeAudio:
		return "Audio"
	case TypeScript:
		return "Script"
	default:
		return fmt.Sprintf("Type(%d)", uint16(t))
	}
}

// Valid reports whether t is a known, concrete asset type.
func (t Type) Valid() bool {
	return t >= TypeScene && t <= TypeScript
}

// ParseType reverses Type.String for concrete types.
func ParseType(name string) (Type, error) {
	for _, t := range Types {
		if t.String() == name {
			return t, nil
		}
	}
	return TypeNone, NewError(CodeParse, fmt.Sprintf("unknown asset type %q", name), ErrParse)
}

// Status is an asset's load state.
type Status uint8

const (
	StatusNone Status = iota
	StatusLoading
	StatusReady
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "None"
	case StatusLoading:
		return "Loading"
	case StatusReady:
		return "Ready"
	case StatusInvalid:
		return "Invalid"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// Metadata describes one known asset. FilePath is relative to the project's
// asset directory and forward-slash separated; it is empty for assets that
// only live inside a pack.
type Metadata struct {
	Handle   Handle
	Type     Type
	FilePath string
	Status   Status
}

func (m Metadata) Valid() bool {
	return !m.Handle.IsNull() && m.Type.Valid()
}

package rhkstm

import (
	"errors"
	"fmt"
)

// DataType enumerates the kinds of acquisition an .sm4 file can hold.
type DataType int

// Enumeration for the file data types
const (
	DataUnknown DataType = iota
	DataImage
	DataSpec
	DataLine
	DataMap
)

var dataTypeNames = map[DataType]string{
	DataUnknown: "unknown",
	DataImage:   "image",
	DataSpec:    "spec",
	DataLine:    "line",
	DataMap:     "map",
}

func (d DataType) String() string {
	if s, ok := dataTypeNames[d]; ok {
		return s
	}
	return fmt.Sprintf("DataType(%d)", int(d))
}

// Valid reports whether d is one of image, spec, line or map.
func (d DataType) Valid() bool {
	return d >= DataImage && d <= DataMap
}

// ErrUnsupportedDataType is returned for a declared data type other than
// map, line, spec or image.
var ErrUnsupportedDataType = errors.New("datatype must be either: map, line, spec or image")

// ParseDataType converts "map", "line", "spec" or "image" into a DataType.
func ParseDataType(s string) (DataType, error) {
	for d, name := range dataTypeNames {
		if d.Valid() && name == s {
			return d, nil
		}
	}
	return DataUnknown, fmt.Errorf("%w: got '%s'", ErrUnsupportedDataType, s)
}

// SpecType enumerates the bias-sweep kind of the spectra in a file.
type SpecType int

// Enumeration for the spectroscopy types
const (
	SpecUnknown SpecType = iota
	SpecNone
	SpecIV
	SpecIZ
)

func (s SpecType) String() string {
	switch s {
	case SpecNone:
		return "none"
	case SpecIV:
		return "iv"
	case SpecIZ:
		return "iz"
	case SpecUnknown:
		return "unknown"
	}
	return fmt.Sprintf("SpecType(%d)", int(s))
}

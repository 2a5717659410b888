// Package sm4 holds the decoded form of an RHK .sm4 scanning tunneling
// microscopy file: an ordered list of data channels, each a numeric matrix
// with its metadata attributes.
//
// Decoding the proprietary binary format is left to an external Decoder.
// This package also reads and writes channel bundles, a directory of .npy
// arrays described by a YAML manifest, so that decoded files can be stored
// and replayed without the native decoder.
package sm4

import (
	"errors"
	"fmt"

	"github.com/spf13/cast"
	"gonum.org/v1/gonum/mat"
)

// Metadata keys read from the decoded channels.
const (
	KeyMinorVer     = "RHK_MinorVer"
	KeyLineType     = "RHK_LineType"
	KeyPageType     = "RHK_PageType"
	KeyDriftX       = "RHK_SpecDrift_Xcoord"
	KeyDriftY       = "RHK_SpecDrift_Ycoord"
	KeyCurrent      = "RHK_Current"
	KeyDate         = "RHK_Date"
	KeyTime         = "RHK_Time"
	KeyBias         = "bias"
	KeyTimePerPoint = "time_per_point"
)

// ErrMissingAttr is returned when a metadata attribute is absent or cannot be
// converted to the requested type.
var ErrMissingAttr = errors.New("sm4: missing or malformed attribute")

// Attrs maps metadata keys to scalar or array values.
type Attrs map[string]interface{}

// Has reports whether key is present.
func (a Attrs) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// Int returns the attribute as an int.
func (a Attrs) Int(key string) (int, error) {
	v, ok := a[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingAttr, key)
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrMissingAttr, key, err)
	}
	return i, nil
}

// Float64 returns the attribute as a float64.
func (a Attrs) Float64(key string) (float64, error) {
	v, ok := a[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingAttr, key)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrMissingAttr, key, err)
	}
	return f, nil
}

// String returns the attribute as a string.
func (a Attrs) String(key string) (string, error) {
	v, ok := a[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingAttr, key)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrMissingAttr, key, err)
	}
	return s, nil
}

// Float64s returns an array-valued attribute as a []float64.
func (a Attrs) Float64s(key string) ([]float64, error) {
	v, ok := a[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingAttr, key)
	}
	fs, err := cast.ToFloat64SliceE(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingAttr, key, err)
	}
	return fs, nil
}

// Channel is one decoded data page. For spectroscopy pages Data has one row
// per sample along the bias sweep and one column per recorded spectrum, and X
// holds the bias value of each row.
type Channel struct {
	Name  string
	Data  *mat.Dense
	X     []float64
	Attrs Attrs
}

// Dims returns the (samples, spectra) shape of the channel data.
func (c *Channel) Dims() (samples, spectra int) {
	if c.Data == nil {
		return 0, 0
	}
	return c.Data.Dims()
}

// File is a decoded .sm4 file. Channels keep the order the decoder produced.
type File struct {
	Filename string
	Channels []*Channel
}

// Channel returns the channel with the given name.
func (f *File) Channel(name string) (*Channel, bool) {
	for _, c := range f.Channels {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Last returns the final channel, or nil if the file has none.
func (f *File) Last() *Channel {
	if len(f.Channels) == 0 {
		return nil
	}
	return f.Channels[len(f.Channels)-1]
}

// Names lists the channel names in order.
func (f *File) Names() []string {
	names := make([]string, len(f.Channels))
	for i, c := range f.Channels {
		names[i] = c.Name
	}
	return names
}

// Decoder turns a file on disk into a decoded File.
type Decoder interface {
	Decode(filename string) (*File, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(filename string) (*File, error)

// Decode calls fn(filename).
func (fn DecoderFunc) Decode(filename string) (*File, error) {
	return fn(filename)
}

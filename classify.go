package rhkstm

import (
	"errors"
	"fmt"

	"github.com/zrbyte/rhkstm/sm4"
)

// RHK page type codes that identify the acquisition modality.
const (
	PageTypeImage    = 1
	PageTypeSpecGrid = 16 // spectra at many tip positions: a line or a map
	PageTypeSpec     = 38
)

// RHK line type codes that identify the bias-sweep kind of each spectrum.
const (
	LineTypeNone = 0
	LineTypeIV   = 7
	LineTypeIZ   = 8
)

// LineAspectRatio is the tip-position aspect ratio above which a
// spectroscopy grid is treated as a line rather than a map.
const LineAspectRatio = 10.0

// ErrUnclassifiable is returned when the page or line type codes of a file
// are outside the known set.
var ErrUnclassifiable = errors.New("unclassifiable file")

// Classify reads the metadata of the last channel of f and decides what kind
// of acquisition the file holds.
//
// Pages of type 16 hold spectra recorded at many tip positions. They are
// split into lines and maps by the aspect ratio of the recorded tip
// positions. Image pages are classified without looking at the line type.
func Classify(f *sm4.File) (DataType, SpecType, error) {
	ch := f.Last()
	if ch == nil {
		return DataUnknown, SpecUnknown, fmt.Errorf("%w: file has no channels", ErrUnclassifiable)
	}
	pageType, err := ch.Attrs.Int(sm4.KeyPageType)
	if err != nil {
		return DataUnknown, SpecUnknown, fmt.Errorf("%w: %v", ErrUnclassifiable, err)
	}
	lineType, err := ch.Attrs.Int(sm4.KeyLineType)
	if err != nil {
		lineType = -1
	}

	var spectype SpecType
	switch lineType {
	case LineTypeIV:
		spectype = SpecIV
	case LineTypeIZ:
		spectype = SpecIZ
	case LineTypeNone:
		spectype = SpecNone
	default:
		spectype = SpecUnknown
	}

	var datatype DataType
	switch pageType {
	case PageTypeImage:
		if spectype == SpecUnknown {
			spectype = SpecNone
		}
		return DataImage, spectype, nil
	case PageTypeSpec:
		datatype = DataSpec
	case PageTypeSpecGrid:
		x, err := ch.Attrs.Float64s(sm4.KeyDriftX)
		if err != nil {
			return DataUnknown, spectype, fmt.Errorf("%w: %v", ErrUnclassifiable, err)
		}
		y, err := ch.Attrs.Float64s(sm4.KeyDriftY)
		if err != nil {
			return DataUnknown, spectype, fmt.Errorf("%w: %v", ErrUnclassifiable, err)
		}
		ratio, err := AspectRatio(x, y)
		if err != nil {
			return DataUnknown, spectype, fmt.Errorf("%w: tip positions: %v", ErrUnclassifiable, err)
		}
		if ratio > LineAspectRatio {
			datatype = DataLine
		} else {
			datatype = DataMap
		}
	default:
		return DataUnknown, spectype, fmt.Errorf("%w: channel %s has %s=%d",
			ErrUnclassifiable, ch.Name, sm4.KeyPageType, pageType)
	}

	if spectype == SpecUnknown {
		return datatype, spectype, fmt.Errorf("%w: channel %s has %s=%d",
			ErrUnclassifiable, ch.Name, sm4.KeyLineType, lineType)
	}
	return datatype, spectype, nil
}

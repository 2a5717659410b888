package rhkstm

import (
	"fmt"
	"io"
	"log"

	"github.com/oklog/ulid/v2"
	"github.com/zrbyte/rhkstm/sm4"
)

// Params are the acquisition settings the user supplies when opening a file.
type Params struct {
	Repetitions int      // spectra recorded at each tip position per sweep direction
	Alternate   bool     // true if forward and backward bias sweeps were both recorded
	DataType    DataType // expected content; the file's own metadata takes precedence
}

// DefaultParams returns one repetition, alternating sweeps, and a map.
func DefaultParams() Params {
	return Params{Repetitions: 1, Alternate: true, DataType: DataMap}
}

// WarningKind classifies the non-fatal problems found while opening a file.
type WarningKind int

// Enumeration of warning kinds
const (
	WarnParameter WarningKind = iota // invalid Params value, used as given
	WarnRevision                     // file revision older than MinTestedMinorVer
	WarnOverride                     // classified data type differs from the declared one
)

func (k WarningKind) String() string {
	switch k {
	case WarnParameter:
		return "parameter"
	case WarnRevision:
		return "revision"
	case WarnOverride:
		return "override"
	}
	return fmt.Sprintf("WarningKind(%d)", int(k))
}

// Warning is a non-fatal problem found while opening a file.
type Warning struct {
	Kind    WarningKind
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}

// STMData holds one opened .sm4 file: the decoded channels, the classified
// content, and, for spectroscopy maps, the reconstructed SpecMap.
type STMData struct {
	Filename string
	Params   Params
	DataType DataType
	SpecType SpecType
	Raw      *sm4.File
	SpecMap  *SpecMap
	Warnings []Warning

	decoder sm4.Decoder
	logger  *log.Logger
}

// Option configures Open.
type Option func(*STMData)

// WithDecoder sets the decoder used to read the file. The default reads
// channel bundles.
func WithDecoder(d sm4.Decoder) Option {
	return func(s *STMData) { s.decoder = d }
}

// WithLogger sets where warnings are logged. The default is ProblemLogger.
func WithLogger(l *log.Logger) Option {
	return func(s *STMData) { s.logger = l }
}

// Open decodes filename, classifies its content and loads it.
//
// The data type found in the file metadata replaces p.DataType; a mismatch is
// reported as a WarnOverride warning. An unsupported p.DataType is an error
// and nothing is read.
func Open(filename string, p Params, opts ...Option) (*STMData, error) {
	s := &STMData{
		Filename: filename,
		Params:   p,
		decoder:  sm4.BundleDecoder,
		logger:   ProblemLogger,
	}
	for _, opt := range opts {
		opt(s)
	}

	if p.Repetitions <= 0 {
		s.warn(WarnParameter, "repetitions needs to be an integer, with a value of 1 or above, got %d", p.Repetitions)
	}
	if !p.DataType.Valid() {
		return s, fmt.Errorf("%w: got %s", ErrUnsupportedDataType, p.DataType)
	}
	s.DataType = p.DataType

	raw, err := s.decoder.Decode(filename)
	if err != nil {
		return s, fmt.Errorf("decoding '%s': %w", filename, err)
	}
	s.Raw = raw
	s.checkRevision()

	datatype, spectype, err := Classify(raw)
	if err != nil {
		return s, fmt.Errorf("'%s': %w", filename, err)
	}
	if datatype != p.DataType {
		s.warn(WarnOverride, "file holds a %s, not the declared %s", datatype, p.DataType)
	}
	s.DataType, s.SpecType = datatype, spectype

	switch s.DataType {
	case DataMap:
		err = s.loadSpecMap()
	case DataLine:
		err = s.loadLine()
	case DataSpec:
		err = s.loadSpec()
	case DataImage:
		err = s.loadImage()
	}
	return s, err
}

func (s *STMData) warn(kind WarningKind, format string, args ...interface{}) {
	w := Warning{Kind: kind, Message: fmt.Sprintf(format, args...)}
	s.Warnings = append(s.Warnings, w)
	if s.logger != nil {
		s.logger.Printf("%s: %s", s.Filename, w)
	}
}

// checkRevision warns if the file revision is older than MinTestedMinorVer.
func (s *STMData) checkRevision() {
	last := s.Raw.Last()
	if last == nil {
		return
	}
	if !last.Attrs.Has(sm4.KeyMinorVer) {
		s.warn(WarnRevision, "channel %s has no %s; file revision unknown", last.Name, sm4.KeyMinorVer)
		return
	}
	minor, err := last.Attrs.Int(sm4.KeyMinorVer)
	if err != nil {
		s.warn(WarnRevision, "could not read file revision: %v", err)
		return
	}
	if minor < MinTestedMinorVer {
		s.warn(WarnRevision, "not tested for RHK Rev version < %d (file is %d); some things might not work as expected",
			MinTestedMinorVer, minor)
	}
}

// loadSpecMap builds the SpecMap, converts it to nm and pA, and annotates it.
func (s *STMData) loadSpecMap() error {
	sm, err := Reconstruct(s.Raw, s.Params.Repetitions, s.Params.Alternate)
	if err != nil {
		return err
	}
	sm.Attrs["filename"] = s.Filename
	sm.Attrs["run_id"] = ulid.Make().String()
	if err := Rescale(sm); err != nil {
		return err
	}
	if err := Annotate(sm, s.Raw); err != nil {
		return err
	}
	s.SpecMap = sm
	return nil
}

// Lines, single spectra and images are classified but kept as decoded; their
// channels stay available in Raw.
func (s *STMData) loadLine() error { return nil }

func (s *STMData) loadSpec() error { return nil }

func (s *STMData) loadImage() error { return nil }

// Describe writes a summary of s and its decoded channels to w.
func (s *STMData) Describe(w io.Writer) {
	fmt.Fprintf(w, "filename:    %s\n", s.Filename)
	fmt.Fprintf(w, "repetitions: %d\n", s.Params.Repetitions)
	fmt.Fprintf(w, "alternate:   %t\n", s.Params.Alternate)
	fmt.Fprintf(w, "datatype:    %s\n", s.DataType)
	fmt.Fprintf(w, "spectype:    %s\n", s.SpecType)
	if s.SpecMap != nil {
		fmt.Fprintf(w, "specmap:     %v %v\n", SpecMapDims, s.SpecMap.Shape())
	}
	for _, warning := range s.Warnings {
		fmt.Fprintf(w, "warning:     %s\n", warning)
	}
	if s.Raw == nil {
		return
	}
	fmt.Fprintf(w, "\nchannels:\n")
	for _, ch := range s.Raw.Channels {
		r, c := ch.Dims()
		fmt.Fprintf(w, "\t%s (%d x %d)\n", ch.Name, r, c)
	}
}

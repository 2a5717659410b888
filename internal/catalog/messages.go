package catalog

import "time"

// The composite types used for messages to the ClickHouse database.

// SessionMessage is the information for the sessions table: one entry per
// program invocation that opened the catalog.
type SessionMessage struct {
	ID        string
	Hostname  string
	Version   string
	GoVersion string
	Start     time.Time
	End       time.Time
}

// FileMessage is the information required to make an entry in the
// conversions table: one raw file turned into one spectroscopy map.
type FileMessage struct {
	ID          string
	SessionID   string
	RunID       string // run_id attribute of the converted map
	Source      string
	Output      string
	Format      string // "netcdf" or "npy"
	DataType    string
	SpecType    string
	Samples     int
	MapSize     int
	Repetitions int
	Alternate   bool
	Start       time.Time
	End         time.Time
}

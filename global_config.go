package rhkstm

import (
	"log"
	"os"
)

// BuildInfo can contain compile-time information about the build
type BuildInfo struct {
	Version string
	Githash string
	Date    string
}

// Build is a global holding compile-time information about the build
var Build = BuildInfo{
	Version: "0.3.0",
	Githash: "no git hash computed",
	Date:    "no build date computed",
}

// MinTestedMinorVer is the lowest RHK file revision (RHK_MinorVer) the
// reconstruction has been checked against. Older files load with a warning.
const MinTestedMinorVer = 6

// ProblemLogger will log warning messages. Containers use it unless given
// their own logger with WithLogger.
var ProblemLogger *log.Logger

func init() {
	// The command-line program will override this, but at least initialize with a sensible value
	ProblemLogger = log.New(os.Stderr, "", log.LstdFlags)
}

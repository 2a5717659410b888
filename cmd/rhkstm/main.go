// Command rhkstm converts RHK STM spectroscopy maps to netCDF or numpy files.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/zrbyte/rhkstm"
)

var githash = "githash not computed"
var buildDate = "build date not computed"

func main() {
	buildDate = strings.Replace(buildDate, ".", " ", -1) // workaround for Make problems
	rhkstm.Build.Date = buildDate
	rhkstm.Build.Githash = githash

	root, _ := newRoot()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Package testutil is test support shared across packages: logging setup
// and a sqlite backend that executes translated filters.
package testutil

import (
	"flag"
	"log"
	"os"
	"sync"

	u "github.com/araddon/gou"
)

var (
	verbose   *bool
	setupOnce = sync.Once{}
)

// Setup enables -vv verbose logging or sends logs to /dev/null
// env var VERBOSELOGS=true also turns on verbose logging
func Setup() {
	setupOnce.Do(func() {

		if flag.CommandLine.Lookup("vv") == nil {
			verbose = flag.Bool("vv", false, "Verbose Logging?")
		}

		flag.Parse()
		if u.GetLogger() != nil {
			return
		}
		if (verbose != nil && *verbose) || os.Getenv("VERBOSELOGS") != "" {
			u.SetupLogging("debug")
			u.SetColorOutput()
		} else {
			// make sure logging is always non-nil
			dn, _ := os.Open(os.DevNull)
			u.SetLogger(log.New(dn, "", 0), "error")
		}
	})
}

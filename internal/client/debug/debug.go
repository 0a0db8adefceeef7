// Package debug is the TUI's logger. The terminal belongs to bubbletea, so
// diagnostics go to a file instead of stdout.
package debug

import (
	"fmt"
	"os"
	"time"
)

var Enabled = os.Getenv("GIGMSG_DEBUG") != ""

// Log appends a timestamped line to gigmsg-debug.log when debug mode is on.
func Log(format string, args ...interface{}) {
	if !Enabled {
		return
	}
	f, err := os.OpenFile("gigmsg-debug.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintf(f, time.Now().Format("15:04:05.000 ")+format+"\n", args...)
}

// golang.design/x/clipboard thinks
// crashing is the best solution despite it having a
// Init funciton that returns an error...

//go:build js || (!windows && !cgo)

package herobg

import (
	"herobg/misc"
)

type ClipboardManager struct {
	Initialized bool
}

func (cm *ClipboardManager) Init() {
	misc.InfoLogger.Print("initializing clipboard")
	misc.WarnLogger.Printf("clipboard is disabled")
}

func (cm *ClipboardManager) WriteText(str string) {
}

func (cm *ClipboardManager) ReadText() string {
	return ""
}

//go:build !js && (windows || cgo)

package herobg

import (
	"unicode/utf8"

	"golang.design/x/clipboard"

	"herobg/misc"
)

type ClipboardManager struct {
	Initialized bool
}

func (cm *ClipboardManager) Init() {
	misc.InfoLogger.Print("initializing clipboard")
	err := clipboard.Init()
	cm.Initialized = err == nil
	if err != nil {
		misc.WarnLogger.Printf("clipboard is disabled: %v", err)
	}
}

func (cm *ClipboardManager) WriteText(str string) {
	if cm.Initialized {
		clipboard.Write(clipboard.FmtText, []byte(str))
	}
}

func (cm *ClipboardManager) ReadText() string {
	if cm.Initialized {
		bytes := clipboard.Read(clipboard.FmtText)
		// basic sanity check
		if utf8.Valid(bytes) {
			return string(bytes)
		}
	}

	return ""
}

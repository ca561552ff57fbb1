package herobg

import (
	"fmt"
	"image/color"
	"strings"

	eb "github.com/hajimehoshi/ebiten/v2"
	ebu "github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

type DebugMsg struct {
	Key   string
	Value string
}

// DebugConsole collects key/value lines for the overlay.
// Msgs are cleared every tick, PersistentMsgs stay.
type DebugConsole struct {
	Msgs           []DebugMsg
	PersistentMsgs []DebugMsg

	builder strings.Builder
}

func (dc *DebugConsole) Printf(key, fmtStr string, values ...any) {
	dc.Puts(key, fmt.Sprintf(fmtStr, values...))
}

func (dc *DebugConsole) Puts(key, value string) {
	dc.Msgs = putDebugMsg(dc.Msgs, key, value)
}

func (dc *DebugConsole) PutsPersist(key, value string) {
	dc.PersistentMsgs = putDebugMsg(dc.PersistentMsgs, key, value)
}

func putDebugMsg(msgs []DebugMsg, key, value string) []DebugMsg {
	for i, msg := range msgs {
		if msg.Key == key {
			msgs[i].Value = value
			return msgs
		}
	}

	return append(msgs, DebugMsg{
		Key:   key,
		Value: value,
	})
}

func (dc *DebugConsole) Clear() {
	dc.Msgs = dc.Msgs[:0]
}

func (dc *DebugConsole) String() string {
	dc.builder.Reset()

	total := len(dc.PersistentMsgs) + len(dc.Msgs)
	msgCounter := 0

	write := func(msg DebugMsg) {
		// builder doesn't actually errors out
		// no need to check error
		dc.builder.WriteString(msg.Key)
		dc.builder.WriteString(": ")
		dc.builder.WriteString(msg.Value)

		msgCounter++
		if msgCounter != total {
			dc.builder.WriteString("\n")
		}
	}

	for _, msg := range dc.PersistentMsgs {
		write(msg)
	}
	for _, msg := range dc.Msgs {
		write(msg)
	}

	return dc.builder.String()
}

func (dc *DebugConsole) Draw(dst *eb.Image) {
	// size of ebitenutil's debug font
	const charWidth = 6
	const lineHeight = 16

	const hozMargin = 5
	const vertMargin = 5

	text := dc.String()
	if text == "" {
		return
	}

	lines := strings.Split(text, "\n")
	longest := 0
	for _, line := range lines {
		longest = max(longest, len(line))
	}

	boxW := f64(longest*charWidth + hozMargin*2)
	boxH := f64(len(lines)*lineHeight + vertMargin*2)

	bounds := dst.Bounds()
	x := f64(bounds.Max.X) - boxW
	y := f64(bounds.Max.Y) - boxH

	DrawFilledRect(dst, x, y, boxW, boxH, color.NRGBA{255, 255, 255, 255}, false)
	DrawFilledRect(dst, x+2, y+2, boxW-4, boxH-4, color.NRGBA{0, 0, 0, 220}, false)

	ebu.DebugPrintAt(dst, text, int(x)+hozMargin, int(y)+vertMargin)
}

package herobg

import (
	"image"

	eb "github.com/hajimehoshi/ebiten/v2"

	fl "herobg/frameloop"
)

// NormalizePointer maps a screen position into [0, 1] x [0, 1].
// A screen with no area maps everything to the center.
func NormalizePointer(x, y float64, width, height int) fl.FPoint {
	if width <= 0 || height <= 0 {
		return fl.FPt(0.5, 0.5)
	}

	return fl.FPt(
		fl.Clamp(x/f64(width), 0, 1),
		fl.Clamp(y/f64(height), 0, 1),
	)
}

// PointerTracker merges mouse and touch into one pointer.
// Whichever moved last wins.
type PointerTracker struct {
	touchBuf []eb.TouchID

	lastCursor image.Point
	hasCursor  bool

	last    fl.FPoint
	hasLast bool
}

// Update reads this tick's input and returns the normalized pointer when
// it moved.
func (pt *PointerTracker) Update(width, height int) (fl.FPoint, bool) {
	var pos image.Point
	found := false

	// the newest touch has the biggest id
	pt.touchBuf = eb.AppendTouchIDs(pt.touchBuf[:0])
	if len(pt.touchBuf) > 0 {
		newest := pt.touchBuf[0]
		for _, id := range pt.touchBuf[1:] {
			if id > newest {
				newest = id
			}
		}
		pos.X, pos.Y = eb.TouchPosition(newest)
		found = true
	} else {
		cx, cy := eb.CursorPosition()
		cursor := image.Pt(cx, cy)
		if !pt.hasCursor || cursor != pt.lastCursor {
			pt.lastCursor = cursor
			pt.hasCursor = true
			pos = cursor
			found = true
		}
	}

	if !found {
		return fl.FPoint{}, false
	}

	normalized := NormalizePointer(f64(pos.X), f64(pos.Y), width, height)
	if pt.hasLast && normalized.Eq(pt.last) {
		return fl.FPoint{}, false
	}

	pt.last = normalized
	pt.hasLast = true

	return normalized, true
}

package herobg

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	eb "github.com/hajimehoshi/ebiten/v2"
)

// ScreenshotName returns a "pic-<time>.png" name not yet used in dir.
func ScreenshotName(dir string, now time.Time) (string, error) {
	timeStr := now.Format("0102150405")

	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return "", err
	}

	taken := make(map[string]bool, len(entries))
	for _, entry := range entries {
		taken[entry.Name()] = true
	}

	filename := fmt.Sprintf("pic-%s.png", timeStr)
	for nameCounter := 2; taken[filename]; nameCounter++ {
		filename = fmt.Sprintf("pic-%s-(%d).png", timeStr, nameCounter)
	}

	return filename, nil
}

// SaveScreenshot writes img to dir as png and returns the full path.
func SaveScreenshot(dir string, img image.Image, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	filename, err := ScreenshotName(dir, now)
	if err != nil {
		return "", err
	}

	buffer := &bytes.Buffer{}
	if err := png.Encode(buffer, img); err != nil {
		return "", err
	}

	fullPath := filepath.Join(dir, filename)
	if err := os.WriteFile(fullPath, buffer.Bytes(), 0o644); err != nil {
		return "", err
	}

	return fullPath, nil
}

// ImageImageFromEbImage copies img's pixels off the gpu.
// Only valid while the game is running.
func ImageImageFromEbImage(img *eb.Image) *image.RGBA {
	rgba := image.NewRGBA(img.Bounds())
	img.ReadPixels(rgba.Pix)
	return rgba
}

package herobg

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
)

var (
	ErrNoResourcePath = errors.New("no path given")
	ErrEmptyResource  = errors.New("resource is empty")
	ErrMissingFile    = errors.New("file does not exist")
)

//go:embed assets/hero_shader.go
var DefaultShaderSource []byte

// Asset is either the resource that was asked for, or a fallback along
// with the reason the real one couldn't be used.
type Asset[T any] struct {
	Value  T
	Source string
	Reason error
}

func LoadedAsset[T any](value T, source string) Asset[T] {
	return Asset[T]{Value: value, Source: source}
}

func FallbackAsset[T any](value T, reason error) Asset[T] {
	return Asset[T]{Value: value, Source: "fallback", Reason: reason}
}

func (a Asset[T]) Loaded() bool {
	return a.Reason == nil
}

func (a Asset[T]) String() string {
	if a.Loaded() {
		return fmt.Sprintf("loaded from %s", a.Source)
	}
	return fmt.Sprintf("fallback (%v)", a.Reason)
}

// LoadShaderSource reads a Kage shader from path,
// falling back to the embedded shader.
func LoadShaderSource(path string) Asset[[]byte] {
	data, err := readResource(path)
	if err != nil {
		return FallbackAsset(DefaultShaderSource, err)
	}
	return LoadedAsset(data, path)
}

// LoadBadge decodes the optional badge image.
// The fallback has a nil image, meaning no badge is drawn.
func LoadBadge(path string) Asset[image.Image] {
	data, err := readResource(path)
	if err != nil {
		return FallbackAsset[image.Image](nil, err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return FallbackAsset[image.Image](nil, fmt.Errorf("%s: %w", path, err))
	}

	return LoadedAsset(img, path)
}

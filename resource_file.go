//go:build !js

package herobg

import (
	"fmt"
	"os"

	"herobg/misc"
)

func readResource(path string) ([]byte, error) {
	if path == "" {
		return nil, ErrNoResourcePath
	}

	exists, err := misc.CheckFileExists(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%s: %w", path, ErrMissingFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyResource)
	}

	return data, nil
}

//go:build js

package herobg

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"syscall/js"
)

// readResource fetches path relative to the page, the browser build's
// stand-in for the file system. cmd/serveweb serves the shader and config
// next to index.html.
func readResource(path string) ([]byte, error) {
	if path == "" {
		return nil, ErrNoResourcePath
	}

	page, err := url.Parse(js.Global().Get("location").Get("href").String())
	if err != nil {
		return nil, err
	}
	ref, err := url.Parse(path)
	if err != nil {
		return nil, err
	}

	res, err := http.Get(page.ResolveReference(ref).String())
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", path, ErrMissingFile)
	case res.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%s: %s", path, res.Status)
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyResource)
	}

	return data, nil
}

// serveweb serves the browser build of herobg.
//
// Besides the build folder it serves a generated index.html that starts the
// wasm binary with -shader and -config pointing at the files given here, so
// the browser and desktop builds run with the same settings.
package main

import (
	"flag"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"herobg"
	"herobg/misc"
)

const (
	WebShaderName = "hero.kage"
	WebConfigName = "herobg.toml"
)

type options struct {
	Folder string
	Addr   string
	Wasm   string

	ShaderPath string
	ConfigPath string
}

func (o *options) register(fs *flag.FlagSet) {
	fs.StringVar(&o.Folder, "folder", "./web_build", "folder with the wasm build and wasm_exec.js")
	fs.StringVar(&o.Addr, "addr", "localhost:6969", "address to listen on")
	fs.StringVar(&o.Wasm, "wasm", "herobg.wasm", "wasm binary inside folder")
	fs.StringVar(&o.ShaderPath, "shader", "", "kage shader served as "+WebShaderName)
	fs.StringVar(&o.ConfigPath, "config", "", "toml config served as "+WebConfigName)
}

// args are what the page passes to the wasm binary.
func (o options) args() []string {
	args := []string{"herobg"}
	if o.ConfigPath != "" {
		args = append(args, "-config", WebConfigName)
	}
	if o.ShaderPath != "" {
		args = append(args, "-shader", WebShaderName)
	}
	return args
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>herobg</title>
<style>html, body { margin: 0; height: 100%; overflow: hidden; background: #000; }</style>
</head>
<body>
<script src="wasm_exec.js"></script>
<script>
const go = new Go();
go.argv = {{.Args}};
WebAssembly.instantiateStreaming(fetch({{.Wasm}}), go.importObject).then((result) => {
	go.run(result.instance);
});
</script>
</body>
</html>
`))

// NewHandler checks the options and builds the site.
func NewHandler(opts options) (http.Handler, error) {
	if !filepath.IsLocal(opts.Folder) {
		return nil, fmt.Errorf("%s is not a local folder", opts.Folder)
	}

	// fail now rather than in the browser console
	if opts.ConfigPath != "" {
		cfg, err := herobg.LoadConfigFile(opts.ConfigPath, herobg.DefaultConfig())
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if opts.ShaderPath != "" {
		if shader := herobg.LoadShaderSource(opts.ShaderPath); !shader.Loaded() {
			return nil, shader.Reason
		}
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err := indexTemplate.Execute(w, struct {
			Args []string
			Wasm string
		}{opts.args(), opts.Wasm})
		if err != nil {
			misc.ErrLogger.Printf("failed to write index: %v", err)
		}
	})

	if opts.ShaderPath != "" {
		mux.Handle("GET /"+WebShaderName, serveFile(opts.ShaderPath, "text/plain; charset=utf-8"))
	}
	if opts.ConfigPath != "" {
		mux.Handle("GET /"+WebConfigName, serveFile(opts.ConfigPath, "application/toml"))
	}

	mux.Handle("GET /", http.FileServer(http.Dir(opts.Folder)))

	return noStore(wasmContentType(mux)), nil
}

// serveFile reads path on every request, so edits show up on reload.
func serveFile(path, contentType string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		http.ServeFile(w, r, path)
	})
}

// instantiateStreaming refuses anything not served as application/wasm,
// which some mime tables get wrong.
func wasmContentType(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".wasm") {
			w.Header().Set("Content-Type", "application/wasm")
		}
		h.ServeHTTP(w, r)
	})
}

// noStore drops conditional headers and forbids caching, so a rebuilt
// binary is picked up on the next reload.
func noStore(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, header := range []string{"If-Modified-Since", "If-None-Match", "If-Match", "If-Range", "If-Unmodified-Since"} {
			r.Header.Del(header)
		}
		w.Header().Set("Cache-Control", "no-store")
		h.ServeHTTP(w, r)
	})
}

func main() {
	var opts options
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	opts.register(fs)
	fs.Parse(os.Args[1:])

	handler, err := NewHandler(opts)
	if err != nil {
		misc.ErrLogger.Fatal(err)
	}

	misc.InfoLogger.Printf("serving %s", opts.Folder)
	misc.InfoLogger.Printf("listening to http://%s", opts.Addr)

	if err := http.ListenAndServe(opts.Addr, handler); err != nil {
		misc.ErrLogger.Fatal(err)
	}
}

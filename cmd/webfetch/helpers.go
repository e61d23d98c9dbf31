package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/leofalp/safefetch/providers/observability/slogobs"
	"github.com/leofalp/safefetch/providers/tool/webfetch"
)

// loadEnv reads a dotenv file without overriding variables that are already
// set. A missing file is not an error.
func loadEnv(path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
	}
}

func loadConfig(path string) (webfetch.Config, error) {
	if strings.TrimSpace(path) == "" {
		return webfetch.ConfigFromEnv(), nil
	}
	cfg, err := webfetch.LoadConfigFile(path)
	if err != nil {
		return webfetch.Config{}, fmt.Errorf("failed to load config: %s\n%w", path, err)
	}
	return cfg, nil
}

// parseHeaders turns repeated "Name: value" flags into a header map. Later
// occurrences of a name win.
func parseHeaders(values []string) (map[string]string, error) {
	headers := make(map[string]string, len(values))
	for _, v := range values {
		name, value, ok := strings.Cut(v, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" || strings.ContainsAny(name, " \t") {
			return nil, fmt.Errorf("invalid header %q: expected \"Name: value\"", v)
		}
		headers[http.CanonicalHeaderKey(name)] = strings.TrimSpace(value)
	}
	return headers, nil
}

func newObserver(verbose bool, w io.Writer) *slogobs.Observer {
	if w == nil {
		w = os.Stderr
	}
	opts := []slogobs.Option{slogobs.WithOutput(w)}
	if verbose {
		opts = append(opts, slogobs.WithLevel(slog.LevelDebug))
	}
	return slogobs.New(opts...)
}

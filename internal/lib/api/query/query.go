package query

import (
	"net/http"
	"strconv"
	"strings"
)

// Int reads a numeric query parameter, returning def when it is absent or malformed.
func Int(r *http.Request, name string, def int) int {
	value := strings.TrimSpace(r.URL.Query().Get(name))
	if value == "" {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return n
}

// Page reads page and limit; zero values are left for the caller's defaults.
func Page(r *http.Request) (int, int) {
	return Int(r, "page", 1), Int(r, "limit", 0)
}

func String(r *http.Request, name string) string {
	return strings.TrimSpace(r.URL.Query().Get(name))
}

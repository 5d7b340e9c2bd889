// Package assets bundles the files the server ships with: the default card
// palette, SQL migrations and the static browser page.
package assets

import (
	"bufio"
	"embed"
	"io"
	"io/fs"
	"strings"
)

//go:embed palette.txt
var paletteFile string

//go:embed migrations/*.sql
var migrations embed.FS

//go:embed web
var web embed.FS

// ReadLines returns the non-blank, non-comment lines of r, trimmed.
func ReadLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// PaletteList returns the embedded default palette in file order.
func PaletteList() ([]string, error) {
	return ReadLines(strings.NewReader(paletteFile))
}

// Migrations exposes the embedded *.sql files under "migrations".
func Migrations() fs.FS { return migrations }

// Web exposes the static page rooted at the web directory.
func Web() fs.FS {
	sub, err := fs.Sub(web, "web")
	if err != nil {
		panic(err) // the directory is embedded at build time
	}
	return sub
}

// Package web holds the landing page template and its static assets.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// StaticPrefix is the URL path the static assets are mounted under
const StaticPrefix = "/static/"

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// PageData is the data rendered into index.html
type PageData struct {
	Title                string
	Service              string
	Version              string
	StaticPrefix         string
	MaxTitleLength       int
	MaxDescriptionLength int
}

// RenderIndex writes the landing page to w
func RenderIndex(w io.Writer, data PageData) error {
	if data.StaticPrefix == "" {
		data.StaticPrefix = StaticPrefix
	}
	if err := pages.ExecuteTemplate(w, "index.html", data); err != nil {
		return fmt.Errorf("render index: %w", err)
	}
	return nil
}

// StaticHandler serves the embedded assets. Mount it with http.StripPrefix(StaticPrefix, ...).
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(fmt.Sprintf("static assets missing: %v", err))
	}
	return http.FileServer(http.FS(sub))
}

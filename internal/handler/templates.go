package handler

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	landingPage = "index.html"
	editPage    = "edit.html"
)

func loadPages() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

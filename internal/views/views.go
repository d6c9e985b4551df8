package views

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"time"
)

//go:embed templates
var files embed.FS

// Page names accepted by Parse results
const (
	PageHome            = "home"
	PageDownload        = "download"
	PageLogin           = "login"
	PageAccountCreate   = "account-create"
	PageProfile         = "profile"
	PageDashboard       = "dashboard"
	PageCharacterCreate = "character-create"
	PageNewsCreate      = "news-create"
	PageUnauthorized    = "unauthorized"
	PageAccountInactive = "account-inactive"
	PageError           = "error"
)

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		return t.Format("02/01/2006")
	},
	"datetime": func(t time.Time) string {
		return t.Format("02/01/2006 15:04")
	},
}

// Parse builds one template set per page, each combined with the shared layout
func Parse() (map[string]*template.Template, error) {
	pages, err := fs.Glob(files, "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}

	set := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		name := strings.TrimSuffix(path.Base(page), ".html")
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(files, "templates/layout.html", page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", name, err)
		}
		set[name] = tmpl
	}
	return set, nil
}

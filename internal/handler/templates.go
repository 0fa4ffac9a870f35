package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/joestump/campaign-desk/internal/i18n"
	"github.com/joestump/campaign-desk/internal/session"
	"github.com/joestump/campaign-desk/internal/store"
	"github.com/joestump/campaign-desk/web"
)

// BasePage carries layout-level data available to every template.
type BasePage struct {
	Theme string           // "desk-light", "desk-dark", or "" (let the inline script decide)
	User  *session.Session // nil for anonymous pages
	T     i18n.Translator
	// Watch is the page path whose auth-state stream the browser should open.
	Watch string
}

func newBasePage(r *http.Request, s *session.Session) BasePage {
	return BasePage{
		Theme: themeFromRequest(r),
		User:  s,
		T:     i18n.ForRequest(r),
	}
}

var funcs = template.FuncMap{
	"roles": func() []string {
		return []string{store.RoleAdmin, store.RoleInfluencer, store.RoleOther}
	},
}

// pageCache maps a render key (e.g. "dashboard.html", "admin/dashboard.html")
// to a template set containing base.html + partials + that one page file.
var pageCache map[string]*template.Template

func init() {
	partials, err := fs.Glob(web.TemplateFS, "templates/partials/*.html")
	if err != nil {
		panic("glob partials: " + err.Error())
	}

	pageCache = make(map[string]*template.Template)
	err = fs.WalkDir(web.TemplateFS, "templates/pages", func(p string, d fs.DirEntry, e error) error {
		if e != nil || d.IsDir() || !strings.HasSuffix(p, ".html") {
			return e
		}

		files := make([]string, 0, 2+len(partials))
		files = append(files, "templates/base.html")
		files = append(files, partials...)
		files = append(files, p)

		t, err := template.New(filepath.Base(p)).Funcs(funcs).ParseFS(web.TemplateFS, files...)
		if err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		rel, _ := strings.CutPrefix(p, "templates/pages/")
		pageCache[rel] = t
		return nil
	})
	if err != nil {
		panic("build page cache: " + err.Error())
	}
}

// render executes a full page (base layout + named page) with status 200.
func render(w http.ResponseWriter, tmpl string, data any) {
	renderStatus(w, http.StatusOK, tmpl, "base", data)
}

// renderPageFragment executes a named template from a page's template set,
// e.g. "user_row" in admin/dashboard.html.
func renderPageFragment(w http.ResponseWriter, page, name string, data any) {
	renderStatus(w, http.StatusOK, page, name, data)
}

// renderStatus buffers the output so a template failure never leaves a
// half-written page behind.
func renderStatus(w http.ResponseWriter, status int, page, name string, data any) {
	t, ok := pageCache[page]
	if !ok {
		http.Error(w, "template not found: "+page, http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

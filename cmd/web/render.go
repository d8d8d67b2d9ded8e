package main

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Passbob/dopamine-travel-front/internal/format"
	"github.com/Passbob/dopamine-travel-front/internal/i18n"
	mw "github.com/Passbob/dopamine-travel-front/internal/middleware"
	"github.com/Passbob/dopamine-travel-front/internal/observability"
	"github.com/Passbob/dopamine-travel-front/internal/seo"
)

// templateSet holds one clone of the shared layout per page plus the fragment set.
type templateSet struct {
	base  *template.Template
	pages map[string]*template.Template
}

// renderer parses templates/{layouts,partials}/*.tmpl as the shared base and clones it for every
// templates/pages/<name>.tmpl. In dev mode templates are reparsed on each request.
type renderer struct {
	dir   string
	dev   bool
	funcs template.FuncMap

	mu    sync.RWMutex
	cache *templateSet
}

func newRenderer(dir string, dev bool, bundle *i18n.Bundle) (*renderer, error) {
	v := &renderer{dir: dir, dev: dev, funcs: templateFuncs(bundle)}
	if dev {
		return v, nil
	}
	set, err := v.parse()
	if err != nil {
		return nil, err
	}
	v.cache = set
	return v, nil
}

func templateFuncs(bundle *i18n.Bundle) template.FuncMap {
	return template.FuncMap{
		"t": func(lang, key string) string {
			if bundle == nil {
				return key
			}
			return bundle.T(lang, key)
		},
		"tf": func(lang, key string, args ...any) string {
			if bundle == nil {
				return key
			}
			return bundle.Tf(lang, key, args...)
		},
		"json":   seo.JSON,
		"jsonld": seo.Script,
		"count":  format.Count,
		"add":    func(a, b int) int { return a + b },
		"list":   func(v ...any) []any { return v },
		"dict": func(kv ...any) (map[string]any, error) {
			if len(kv)%2 != 0 {
				return nil, fmt.Errorf("dict: odd number of arguments")
			}
			m := make(map[string]any, len(kv)/2)
			for i := 0; i < len(kv); i += 2 {
				key, ok := kv[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
				}
				m[key] = kv[i+1]
			}
			return m, nil
		},
	}
}

func (v *renderer) parse() (*templateSet, error) {
	var shared []string
	for _, sub := range []string{"layouts", "partials"} {
		matches, err := filepath.Glob(filepath.Join(v.dir, sub, "*.tmpl"))
		if err != nil {
			return nil, err
		}
		shared = append(shared, matches...)
	}
	if len(shared) == 0 {
		return nil, fmt.Errorf("no layout templates found under %s", v.dir)
	}
	base, err := template.New("_root").Funcs(v.funcs).ParseFiles(shared...)
	if err != nil {
		return nil, err
	}

	pageFiles, err := filepath.Glob(filepath.Join(v.dir, "pages", "*.tmpl"))
	if err != nil {
		return nil, err
	}
	set := &templateSet{base: base, pages: make(map[string]*template.Template, len(pageFiles))}
	for _, file := range pageFiles {
		name := strings.TrimSuffix(filepath.Base(file), ".tmpl")
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		src, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		if _, err := clone.New(name).Parse(string(src)); err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		set.pages[name] = clone
	}
	return set, nil
}

func (v *renderer) templates() (*templateSet, error) {
	if v.dev {
		return v.parse()
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.cache == nil {
		return nil, fmt.Errorf("templates not initialized")
	}
	return v.cache, nil
}

// renderPage executes the base layout around the named page.
func (v *renderer) renderPage(w http.ResponseWriter, r *http.Request, page string, data any) {
	v.renderStatus(w, r, http.StatusOK, page, data)
}

func (v *renderer) renderStatus(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	set, err := v.templates()
	if err != nil {
		v.fail(w, r, "template parse error", err)
		return
	}
	t, ok := set.pages[page]
	if !ok {
		v.fail(w, r, "template missing", fmt.Errorf("page %q", page))
		return
	}
	v.write(w, r, status, t, "base", data)
}

// renderTemplate executes a single named fragment, typically for htmx swaps.
func (v *renderer) renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	set, err := v.templates()
	if err != nil {
		v.fail(w, r, "template parse error", err)
		return
	}
	v.write(w, r, http.StatusOK, set.base, name, data)
}

func (v *renderer) write(w http.ResponseWriter, r *http.Request, status int, t *template.Template, name string, data any) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		v.fail(w, r, "template exec error", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (v *renderer) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	observability.FromContext(r.Context()).Error(msg, zap.Error(err))
	if id, ok := mw.RequestID(r.Context()); ok {
		msg += " (request " + id + ")"
	}
	http.Error(w, msg, http.StatusInternalServerError)
}

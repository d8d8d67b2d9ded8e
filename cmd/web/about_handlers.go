package main

import (
	"errors"
	"net/http"

	"github.com/Passbob/dopamine-travel-front/internal/cms"
	"github.com/Passbob/dopamine-travel-front/internal/format"
)

// AboutView is the rendered about page content.
type AboutView struct {
	Page    cms.Page
	Updated string
}

// AboutHandler renders content/<lang>/about.md.
func (a *app) AboutHandler(w http.ResponseWriter, r *http.Request) {
	vm := a.newPage(r, "about.title", "about.description", -1)
	page, err := a.pages.Page("about", vm.Lang)
	if errors.Is(err, cms.ErrNotFound) {
		a.NotFoundHandler(w, r)
		return
	}
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	if page.Title != "" {
		vm.Title = page.Title
	}
	title := vm.Title
	if page.SEO.Title != "" {
		title = page.SEO.Title
	}
	desc := vm.SEO.Description
	if page.SEO.Description != "" {
		desc = page.SEO.Description
	}
	vm.SEO = a.site.Build(vm.Path, title, desc)
	vm.SEO.OG.Locale = vm.Lang
	if page.SEO.OGImage != "" {
		vm.SEO.OG.Image = page.SEO.OGImage
		vm.SEO.Twitter.Image = page.SEO.OGImage
	}
	vm.SEO.JSONLD = append(vm.SEO.JSONLD, a.breadcrumbSchema(vm.Lang, vm.Breadcrumbs))
	vm.Content = AboutView{Page: page, Updated: format.FmtDate(page.UpdatedAt, vm.Lang)}
	a.views.renderPage(w, r, "about", vm)
}

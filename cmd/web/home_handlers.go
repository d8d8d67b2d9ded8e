package main

import (
	"net/http"

	handlersPkg "github.com/Passbob/dopamine-travel-front/internal/handlers"
	"github.com/Passbob/dopamine-travel-front/internal/seo"
)

// HomeHandler renders the landing page. Visiting it discards the current selection chain.
func (a *app) HomeHandler(w http.ResponseWriter, r *http.Request) {
	a.reset(r)

	visits, err := a.travel.TotalVisits(r.Context())
	failed := err != nil
	if failed {
		a.fetchFailure(r, "total-visits", err)
		visits = 0
	}
	home := handlersPkg.BuildHomeData(visits, failed, a.rand)

	vm := a.newPage(r, "", "home.description", -1)
	vm.SEO.Keywords = a.t(vm.Lang, "home.keywords")
	vm.SEO.JSONLD = append(vm.SEO.JSONLD,
		seo.WebSite(siteName, a.site.Absolute("/"), a.t(vm.Lang, "site.description"), ""),
		seo.Organization(siteName, a.site.Absolute("/")),
	)
	vm.Home = &home
	a.views.renderPage(w, r, "home", vm)
}

package main

import (
	"context"
	"net/http"

	"github.com/Passbob/dopamine-travel-front/internal/i18n"
	"github.com/Passbob/dopamine-travel-front/internal/selection"
	"github.com/Passbob/dopamine-travel-front/internal/seo"
	"github.com/Passbob/dopamine-travel-front/internal/travelapi"
	"github.com/Passbob/dopamine-travel-front/internal/workflow"
)

func (a *app) cityDef() stepDef[travelapi.City] {
	return stepDef[travelapi.City]{
		key:   "city",
		step:  workflow.StepCity,
		style: selection.Spotlight,
		routes: stageRoutes{
			Page:    "/random/city",
			Spin:    "/random/city/spin",
			Reveal:  "/random/city/reveal",
			Frames:  "/random/city/frames",
			Confirm: "/random/city/confirm",
		},
		next: "/random/theme",
		slot: func(wf *workflow.Workflow) **selection.Machine[travelapi.City] { return &wf.City },
		selected: func(c workflow.Chain) bool {
			return c.City != nil
		},
		fetch: func(ctx context.Context, chain workflow.Chain) ([]travelapi.City, error) {
			return a.travel.Cities(ctx, chain.Province.No)
		},
		describe: func(c travelapi.City) string { return c.Description },
		endpoint: "cities",
	}
}

// CityHandler renders the city spotlight for the chosen province.
func (a *app) CityHandler(w http.ResponseWriter, r *http.Request) {
	def := a.cityDef()
	res, err := loadStep(a, r, def)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	vm := a.newPage(r, "city.title", "city.description", flowCity)
	vm.SEO.Keywords = a.t(vm.Lang, "city.keywords")
	if p := res.chain.Province; p != nil {
		vm.SEO.Description = a.bundle.In(vm.Lang, "city.description", i18n.Place{Province: p.Name})
		vm.SEO.OG.Description = vm.SEO.Description
	}
	vm.SEO.JSONLD = append(vm.SEO.JSONLD,
		seo.TravelService(a.serviceInfo(vm.Lang, "city")),
		a.breadcrumbSchema(vm.Lang, vm.Breadcrumbs),
	)
	a.renderStep(w, r, vm, res, def.next)
}

// CitySpinHandler starts the spotlight.
func (a *app) CitySpinHandler(w http.ResponseWriter, r *http.Request) {
	def := a.cityDef()
	res, err := spinStep(a, r, def)
	a.renderStageFrag(w, r, res, err, def.routes.Page, def.next)
}

// CityRevealFrag renders the spotlight after the animation finished.
func (a *app) CityRevealFrag(w http.ResponseWriter, r *http.Request) {
	def := a.cityDef()
	res, err := revealStep(a, r, def)
	a.renderStageFrag(w, r, res, err, def.routes.Page, def.next)
}

// CityConfirmHandler continues to the theme step.
func (a *app) CityConfirmHandler(w http.ResponseWriter, r *http.Request) {
	confirmStep(a, w, r, a.cityDef())
}

package main

import (
	"context"
	"net/http"

	"github.com/Passbob/dopamine-travel-front/internal/selection"
	"github.com/Passbob/dopamine-travel-front/internal/seo"
	"github.com/Passbob/dopamine-travel-front/internal/travelapi"
	"github.com/Passbob/dopamine-travel-front/internal/workflow"
)

func (a *app) provinceDef() stepDef[travelapi.Province] {
	return stepDef[travelapi.Province]{
		key:   "province",
		step:  workflow.StepProvince,
		style: selection.Wheel,
		routes: stageRoutes{
			Page:    "/random",
			Spin:    "/random/spin",
			Reveal:  "/random/reveal",
			Frames:  "/random/frames",
			Confirm: "/random/confirm",
		},
		next: "/random/city",
		slot: func(wf *workflow.Workflow) **selection.Machine[travelapi.Province] { return &wf.Province },
		selected: func(c workflow.Chain) bool {
			return c.Province != nil
		},
		fetch: func(ctx context.Context, _ workflow.Chain) ([]travelapi.Province, error) {
			return a.travel.Provinces(ctx)
		},
		endpoint: "provinces",
	}
}

// ProvinceHandler renders the province roulette.
func (a *app) ProvinceHandler(w http.ResponseWriter, r *http.Request) {
	def := a.provinceDef()
	res, err := loadStep(a, r, def)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	vm := a.newPage(r, "province.title", "province.description", flowProvince)
	vm.SEO.Keywords = a.t(vm.Lang, "province.keywords")
	vm.SEO.JSONLD = append(vm.SEO.JSONLD,
		seo.TravelService(a.serviceInfo(vm.Lang, "province")),
		a.breadcrumbSchema(vm.Lang, vm.Breadcrumbs),
	)
	a.renderStep(w, r, vm, res, def.next)
}

// ProvinceSpinHandler starts the roulette.
func (a *app) ProvinceSpinHandler(w http.ResponseWriter, r *http.Request) {
	def := a.provinceDef()
	res, err := spinStep(a, r, def)
	a.renderStageFrag(w, r, res, err, def.routes.Page, def.next)
}

// ProvinceRevealFrag renders the roulette after the animation finished.
func (a *app) ProvinceRevealFrag(w http.ResponseWriter, r *http.Request) {
	def := a.provinceDef()
	res, err := revealStep(a, r, def)
	a.renderStageFrag(w, r, res, err, def.routes.Page, def.next)
}

// ProvinceConfirmHandler continues to the city step.
func (a *app) ProvinceConfirmHandler(w http.ResponseWriter, r *http.Request) {
	confirmStep(a, w, r, a.provinceDef())
}

// serviceInfo describes a selection step as a free travel service.
func (a *app) serviceInfo(lang, kind string) seo.ServiceInfo {
	return seo.ServiceInfo{
		Provider:    siteName,
		Name:        a.t(lang, kind+".service.name"),
		Description: a.t(lang, kind+".service.description"),
		Output:      a.t(lang, kind+".service.output"),
		ServiceType: a.t(lang, "service.type"),
		AreaServed:  a.t(lang, "service.area"),
	}
}

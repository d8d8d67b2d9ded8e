package main

import (
	"net/http"

	"github.com/Passbob/dopamine-travel-front/internal/i18n"
	"github.com/Passbob/dopamine-travel-front/internal/itinerary"
	mw "github.com/Passbob/dopamine-travel-front/internal/middleware"
	"github.com/Passbob/dopamine-travel-front/internal/seo"
	"github.com/Passbob/dopamine-travel-front/internal/workflow"
)

// ResultView is the body of the result page.
type ResultView struct {
	Summary   itinerary.Summary
	Title     string
	Picked    bool
	ExportURL string
	CopiedKey string
	DeniedKey string
}

type resultSnapshot struct {
	chain   workflow.Chain
	summary itinerary.Summary
	picked  bool
	missing bool
}

func (a *app) snapshotResult(r *http.Request) (resultSnapshot, error) {
	var snap resultSnapshot
	err := a.update(r, func(wf *workflow.Workflow) error {
		snap.chain = wf.Chain
		if wf.Chain.Require(workflow.StepResult) != nil || !wf.Course.Loaded {
			snap.missing = true
			return nil
		}
		snap.picked = wf.Course.HasPick()
		snap.summary = itinerary.Summary{
			Province:   wf.Chain.Province.Name,
			City:       wf.Chain.City.Name,
			Theme:      wf.Chain.Theme.Name,
			Constraint: wf.Chain.Constraint.Name,
			Steps:      wf.Course.Result(),
		}
		return nil
	})
	return snap, err
}

// ResultHandler renders the final itinerary with the picked card's stop first.
func (a *app) ResultHandler(w http.ResponseWriter, r *http.Request) {
	snap, err := a.snapshotResult(r)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	vm := a.newPage(r, "result.title", "result.description", flowResult)
	if snap.missing {
		vm.Notice = missingNotice(snap.chain, workflow.StepResult)
		vm.SEO.Robots = "noindex"
		a.views.renderPage(w, r, "notice", vm)
		return
	}

	title := snap.summary.Title(a.bundle.ExportLabels(vm.Lang))
	vm.Title = title
	vm.SEO = a.site.Build(vm.Path, title, a.bundle.In(vm.Lang, "result.description", i18n.Place{Province: snap.summary.Province, City: snap.summary.City}))
	vm.SEO.OG.Type = "article"
	vm.SEO.OG.Locale = vm.Lang
	vm.SEO.Robots = "noindex"
	vm.SEO.JSONLD = append(vm.SEO.JSONLD,
		seo.TouristTrip(title, a.t(vm.Lang, "result.offer"), snap.summary.Steps),
		a.breadcrumbSchema(vm.Lang, vm.Breadcrumbs),
	)
	vm.Result = ResultView{
		Summary:   snap.summary,
		Title:     title,
		Picked:    snap.picked,
		ExportURL: "/postResult/export.txt",
		CopiedKey: "result.copied",
		DeniedKey: "result.copy_denied",
	}
	a.views.renderPage(w, r, "result", vm)
}

// ResultExportHandler serves the plain-text itinerary the copy button writes to the clipboard.
func (a *app) ResultExportHandler(w http.ResponseWriter, r *http.Request) {
	snap, err := a.snapshotResult(r)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	if snap.missing {
		http.Error(w, a.t(mw.Lang(r), "notice.missing.body"), http.StatusConflict)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(snap.summary.Text(a.bundle.ExportLabels(mw.Lang(r)))))
}

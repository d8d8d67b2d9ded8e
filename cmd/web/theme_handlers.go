package main

import (
	"errors"
	"net/http"

	"github.com/Passbob/dopamine-travel-front/internal/i18n"
	mw "github.com/Passbob/dopamine-travel-front/internal/middleware"
	"github.com/Passbob/dopamine-travel-front/internal/observability"
	"github.com/Passbob/dopamine-travel-front/internal/selection"
	"github.com/Passbob/dopamine-travel-front/internal/seo"
	"github.com/Passbob/dopamine-travel-front/internal/travelapi"
	"github.com/Passbob/dopamine-travel-front/internal/workflow"
)

var themeRoutes = stageRoutes{
	Page:    "/random/theme",
	Spin:    "/random/theme/spin",
	Reveal:  "/random/theme/reveal",
	Frames:  "/random/theme/frames",
	Confirm: "/random/theme/confirm",
}

// ThemeView is the body of the theme page: two reels spun by one lever.
type ThemeView struct {
	Chain      workflow.Chain
	Theme      StageView
	Constraint StageView
	Routes     stageRoutes
	Next       string
}

// State folds both reels into a single stage state for the lever and confirm button.
func (v ThemeView) State() string {
	for _, s := range []string{stageFailed, stageUnavailable, stageRunning, stageIdle} {
		if v.Theme.State == s || v.Constraint.State == s {
			return s
		}
	}
	return stageSettled
}

type themeResult struct {
	view    ThemeView
	missing bool
}

func (a *app) snapshotTheme(wf *workflow.Workflow) ThemeView {
	now := a.store.Now()
	return ThemeView{
		Chain:      wf.Chain,
		Theme:      buildStage("theme", selection.SkinSlot, wf.Theme, now, nil, themeRoutes),
		Constraint: buildStage("constraint", selection.SkinSlot, wf.Constraint, now, nil, themeRoutes),
		Routes:     themeRoutes,
		Next:       "/course",
	}
}

func (a *app) loadTheme(r *http.Request) (themeResult, error) {
	var res themeResult
	pendingTheme, pendingConstraint := false, false
	err := a.update(r, func(wf *workflow.Workflow) error {
		res.view.Chain = wf.Chain
		if wf.Chain.Require(workflow.StepTheme) != nil {
			res.missing = true
			return nil
		}
		pendingTheme = wf.Theme == nil || wf.Theme.State() == selection.Idle
		pendingConstraint = wf.Constraint == nil || wf.Constraint.State() == selection.Idle
		return nil
	})
	if err != nil || res.missing {
		return res, err
	}

	ctx := r.Context()
	var (
		themes      []travelapi.Theme
		constraints []travelapi.Constraint
		themeErr    error
		constErr    error
	)
	if pendingTheme {
		themes, themeErr = a.travel.Themes(ctx)
	}
	if pendingConstraint {
		constraints, constErr = a.travel.Constraints(ctx)
	}

	err = a.update(r, func(wf *workflow.Workflow) error {
		if pendingTheme {
			install(a, &wf.Theme, themes, themeErr, selection.ThemeReel)
		}
		if pendingConstraint {
			install(a, &wf.Constraint, constraints, constErr, selection.ConstraintReel)
		}
		res.view = a.snapshotTheme(wf)
		return nil
	})
	if themeErr != nil {
		res.view.Theme = failedStage("theme", selection.SkinSlot, a.fetchFailure(r, "themes", themeErr), themeRoutes)
	}
	if constErr != nil {
		res.view.Constraint = failedStage("constraint", selection.SkinSlot, a.fetchFailure(r, "constraints", constErr), themeRoutes)
	}
	return res, err
}

// ThemeHandler renders the theme and constraint reels.
func (a *app) ThemeHandler(w http.ResponseWriter, r *http.Request) {
	res, err := a.loadTheme(r)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	vm := a.newPage(r, "theme.title", "theme.description", flowTheme)
	vm.SEO.Keywords = a.t(vm.Lang, "theme.keywords")
	if c := res.view.Chain; c.Province != nil && c.City != nil {
		place := i18n.Place{Province: c.Province.Name, City: c.City.Name}
		vm.Title = a.bundle.In(vm.Lang, "theme.title", place)
		vm.SEO = a.site.Build(vm.Path, vm.Title, a.bundle.In(vm.Lang, "theme.description", place))
		vm.SEO.OG.Locale = vm.Lang
	}
	vm.SEO.JSONLD = append(vm.SEO.JSONLD,
		seo.TravelService(a.serviceInfo(vm.Lang, "theme")),
		a.breadcrumbSchema(vm.Lang, vm.Breadcrumbs),
	)
	if res.missing {
		vm.Notice = missingNotice(res.view.Chain, workflow.StepTheme)
		vm.SEO.Robots = "noindex"
		a.views.renderPage(w, r, "notice", vm)
		return
	}
	vm.Stage = res.view
	a.views.renderPage(w, r, "theme", vm)
}

// ThemeSpinHandler pulls the lever: both reels start together.
func (a *app) ThemeSpinHandler(w http.ResponseWriter, r *http.Request) {
	var res themeResult
	err := a.update(r, func(wf *workflow.Workflow) error {
		res.view.Chain = wf.Chain
		if wf.Chain.Require(workflow.StepTheme) != nil {
			res.missing = true
			return nil
		}
		if wf.Theme == nil || wf.Constraint == nil {
			return errNoMachine
		}
		now := a.store.Now()
		if wf.Theme.State() == selection.Idle {
			wf.Theme.Start(now)
			observability.SelectionSpins.WithLabelValues("theme").Inc()
		}
		if wf.Constraint.State() == selection.Idle {
			wf.Constraint.Start(now)
			observability.SelectionSpins.WithLabelValues("constraint").Inc()
		}
		res.view = a.snapshotTheme(wf)
		return nil
	})
	a.renderThemeFrag(w, r, res, err)
}

// ThemeRevealFrag renders both reels once they stopped.
func (a *app) ThemeRevealFrag(w http.ResponseWriter, r *http.Request) {
	var res themeResult
	err := a.update(r, func(wf *workflow.Workflow) error {
		res.view.Chain = wf.Chain
		if wf.Chain.Require(workflow.StepTheme) != nil {
			res.missing = true
			return nil
		}
		res.view = a.snapshotTheme(wf)
		return nil
	})
	a.renderThemeFrag(w, r, res, err)
}

func (a *app) renderThemeFrag(w http.ResponseWriter, r *http.Request, res themeResult, err error) {
	switch {
	case errors.Is(err, errNoMachine) || res.missing:
		mw.Redirect(w, r, themeRoutes.Page)
		return
	case err != nil:
		a.serverError(w, r, err)
		return
	}
	if !mw.IsHTMX(r.Context()) && r.Method != http.MethodGet {
		mw.Redirect(w, r, themeRoutes.Page)
		return
	}
	a.views.renderTemplate(w, r, "frag_theme_stage", map[string]any{
		"Lang":      mw.Lang(r),
		"CSRFToken": mw.CSRFToken(r),
		"Theme":     res.view,
	})
}

// ThemeConfirmHandler continues to the course once both reels settled.
func (a *app) ThemeConfirmHandler(w http.ResponseWriter, r *http.Request) {
	done := false
	err := a.update(r, func(wf *workflow.Workflow) error {
		done = wf.Chain.Theme != nil && wf.Chain.Constraint != nil
		return nil
	})
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	if !done {
		mw.Redirect(w, r, themeRoutes.Page)
		return
	}
	mw.Redirect(w, r, "/course")
}

package main

import (
	"context"
	"errors"
	"net/http"

	handlersPkg "github.com/Passbob/dopamine-travel-front/internal/handlers"
	mw "github.com/Passbob/dopamine-travel-front/internal/middleware"
	"github.com/Passbob/dopamine-travel-front/internal/observability"
	"github.com/Passbob/dopamine-travel-front/internal/selection"
	"github.com/Passbob/dopamine-travel-front/internal/workflow"
)

// errNoMachine indicates a spin was posted before the step page loaded its candidates.
var errNoMachine = errors.New("web: step has no candidates loaded")

// stepDef describes a single-machine selection step (province, city).
type stepDef[T selection.Item] struct {
	key      string
	step     workflow.Step
	style    selection.Style
	routes   stageRoutes
	next     string
	slot     func(*workflow.Workflow) **selection.Machine[T]
	selected func(workflow.Chain) bool
	fetch    func(ctx context.Context, chain workflow.Chain) ([]T, error)
	describe func(T) string
	endpoint string
}

func (a *app) machineOptions(style selection.Style) []selection.Option {
	return []selection.Option{selection.WithStyle(style), selection.WithRand(a.rand)}
}

// install replaces an unstarted machine with one over the freshly fetched items.
// A fetch failure or an empty list leaves the step without a machine.
func install[T selection.Item](a *app, slot **selection.Machine[T], items []T, fetchErr error, style selection.Style) {
	if m := *slot; m != nil && m.State() != selection.Idle {
		return
	}
	*slot = nil
	if fetchErr != nil {
		return
	}
	if m, err := selection.NewMachine(items, a.machineOptions(style)...); err == nil {
		*slot = m
	}
}

// stageResult is the outcome of loading a step page.
type stageResult struct {
	stage StageView
	chain workflow.Chain
	// missing is set when prior selections are absent; nothing was fetched.
	missing bool
}

// loadStep fetches the candidate list on entry (unless the step already started) and
// snapshots the stage for rendering.
func loadStep[T selection.Item](a *app, r *http.Request, def stepDef[T]) (stageResult, error) {
	var res stageResult
	pending := false
	err := a.update(r, func(wf *workflow.Workflow) error {
		res.chain = wf.Chain
		if wf.Chain.Require(def.step) != nil {
			res.missing = true
			return nil
		}
		m := *def.slot(wf)
		pending = m == nil || m.State() == selection.Idle
		return nil
	})
	if err != nil || res.missing {
		return res, err
	}

	var items []T
	var fetchErr error
	if pending {
		items, fetchErr = def.fetch(r.Context(), res.chain)
	}

	err = a.update(r, func(wf *workflow.Workflow) error {
		slot := def.slot(wf)
		if pending {
			install(a, slot, items, fetchErr, def.style)
		}
		res.chain = wf.Chain
		res.stage = buildStage(def.key, def.style.Skin, *slot, a.store.Now(), def.describe, def.routes)
		return nil
	})
	if fetchErr != nil {
		res.stage = failedStage(def.key, def.style.Skin, a.fetchFailure(r, def.endpoint, fetchErr), def.routes)
	}
	return res, err
}

// spinStep starts the step's machine. Repeated spins return the existing run.
func spinStep[T selection.Item](a *app, r *http.Request, def stepDef[T]) (stageResult, error) {
	var res stageResult
	err := a.update(r, func(wf *workflow.Workflow) error {
		res.chain = wf.Chain
		if wf.Chain.Require(def.step) != nil {
			res.missing = true
			return nil
		}
		m := *def.slot(wf)
		if m == nil {
			return errNoMachine
		}
		if m.State() == selection.Idle {
			m.Start(a.store.Now())
			observability.SelectionSpins.WithLabelValues(def.key).Inc()
		}
		res.stage = buildStage(def.key, def.style.Skin, m, a.store.Now(), def.describe, def.routes)
		return nil
	})
	return res, err
}

// revealStep snapshots the stage; Update has already settled a finished run.
func revealStep[T selection.Item](a *app, r *http.Request, def stepDef[T]) (stageResult, error) {
	var res stageResult
	err := a.update(r, func(wf *workflow.Workflow) error {
		res.chain = wf.Chain
		if wf.Chain.Require(def.step) != nil {
			res.missing = true
			return nil
		}
		res.stage = buildStage(def.key, def.style.Skin, *def.slot(wf), a.store.Now(), def.describe, def.routes)
		return nil
	})
	return res, err
}

// StepView is the body of a single-machine step page.
type StepView struct {
	Chain workflow.Chain
	Stage StageView
	Next  string
}

func (a *app) renderStep(w http.ResponseWriter, r *http.Request, vm handlersPkg.PageData, res stageResult, next string) {
	if res.missing {
		vm.Notice = missingNotice(res.chain, workflowStepOf(vm))
		vm.SEO.Robots = "noindex"
		a.views.renderPage(w, r, "notice", vm)
		return
	}
	vm.Stage = StepView{Chain: res.chain, Stage: res.stage, Next: next}
	a.views.renderPage(w, r, "step", vm)
}

// renderStageFrag answers htmx spins and reveals with the stage fragment; plain form posts
// are redirected back to the page, which renders the same state.
func (a *app) renderStageFrag(w http.ResponseWriter, r *http.Request, res stageResult, err error, page, next string) {
	switch {
	case errors.Is(err, errNoMachine):
		mw.Redirect(w, r, page)
		return
	case err != nil:
		a.serverError(w, r, err)
		return
	case res.missing:
		mw.Redirect(w, r, page)
		return
	}
	if !mw.IsHTMX(r.Context()) && r.Method != http.MethodGet {
		mw.Redirect(w, r, page)
		return
	}
	a.views.renderTemplate(w, r, "frag_stage", map[string]any{
		"Lang":      mw.Lang(r),
		"CSRFToken": mw.CSRFToken(r),
		"Stage":     res.stage,
		"Next":      next,
	})
}

// confirmStep moves on once the step's selection is frozen into the chain.
func confirmStep[T selection.Item](a *app, w http.ResponseWriter, r *http.Request, def stepDef[T]) {
	done := false
	err := a.update(r, func(wf *workflow.Workflow) error {
		done = def.selected(wf.Chain)
		return nil
	})
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	if !done {
		mw.Redirect(w, r, def.routes.Page)
		return
	}
	mw.Redirect(w, r, def.next)
}

func workflowStepOf(vm handlersPkg.PageData) workflow.Step {
	switch vm.Path {
	case "/random/city":
		return workflow.StepCity
	case "/random/theme":
		return workflow.StepTheme
	case "/course":
		return workflow.StepCourse
	case "/postResult":
		return workflow.StepResult
	default:
		return workflow.StepProvince
	}
}

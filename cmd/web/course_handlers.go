package main

import (
	"errors"
	"net/http"
	"strconv"

	handlersPkg "github.com/Passbob/dopamine-travel-front/internal/handlers"
	"github.com/Passbob/dopamine-travel-front/internal/itinerary"
	mw "github.com/Passbob/dopamine-travel-front/internal/middleware"
	"github.com/Passbob/dopamine-travel-front/internal/observability"
	"github.com/Passbob/dopamine-travel-front/internal/selection"
	"github.com/Passbob/dopamine-travel-front/internal/travelapi"
	"github.com/Passbob/dopamine-travel-front/internal/workflow"
)

type courseResult struct {
	view    CourseView
	missing bool
}

func (a *app) snapshotCourse(r *http.Request) (courseResult, error) {
	var res courseResult
	err := a.update(r, func(wf *workflow.Workflow) error {
		res.view.Chain = wf.Chain
		if wf.Chain.Require(workflow.StepCourse) != nil {
			res.missing = true
			return nil
		}
		res.view = buildCourseView(wf, a.store.Now())
		return nil
	})
	return res, err
}

// CourseHandler renders the card draw for a complete selection chain. Without one the
// informational notice is shown and the backend is not called.
func (a *app) CourseHandler(w http.ResponseWriter, r *http.Request) {
	res, err := a.snapshotCourse(r)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	vm := a.newPage(r, "course.title", "course.description", flowCourse)
	vm.SEO.Keywords = a.t(vm.Lang, "course.keywords")
	vm.SEO.OG.Type = "article"
	vm.SEO.JSONLD = append(vm.SEO.JSONLD, a.breadcrumbSchema(vm.Lang, vm.Breadcrumbs))
	if res.missing {
		vm.Notice = missingNotice(res.view.Chain, workflow.StepCourse)
		vm.SEO.Robots = "noindex"
		a.views.renderPage(w, r, "notice", vm)
		return
	}
	vm.Course = res.view
	a.views.renderPage(w, r, "course", vm)
}

// CourseDrawHandler shuffles the deck and fetches the itinerary. Only one fetch runs per
// workflow; draws while one is in flight, or after the itinerary loaded, re-render the deck.
func (a *app) CourseDrawHandler(w http.ResponseWriter, r *http.Request) {
	var (
		res   courseResult
		id    string
		query travelapi.CourseQuery
		fetch bool
	)
	err := a.update(r, func(wf *workflow.Workflow) error {
		id = wf.ID
		res.view.Chain = wf.Chain
		if wf.Chain.Require(workflow.StepCourse) != nil {
			res.missing = true
			return nil
		}
		if wf.Course.Loaded {
			res.view = buildCourseView(wf, a.store.Now())
			return nil
		}
		if err := wf.Course.BeginDraw(); err != nil {
			if errors.Is(err, workflow.ErrBusy) {
				res.view = buildCourseView(wf, a.store.Now())
				return nil
			}
			return err
		}
		shuffle, err := selection.NewMachine(workflow.Deck, a.machineOptions(selection.Cards)...)
		if err != nil {
			wf.Course.FinishDraw(nil, err.Error())
			return err
		}
		shuffle.Start(a.store.Now())
		observability.SelectionSpins.WithLabelValues("course").Inc()
		wf.Course.Shuffle = shuffle
		q, err := wf.Chain.Query()
		if err != nil {
			wf.Course.FinishDraw(nil, err.Error())
			return err
		}
		query, fetch = q, true
		return nil
	})
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	if res.missing {
		mw.Redirect(w, r, courseRoutes.Page)
		return
	}

	if fetch {
		slots, ferr := a.travel.TravelCourse(r.Context(), query)
		var steps []itinerary.Step
		failure := ""
		if ferr != nil {
			failure = a.fetchFailure(r, "travel-course", ferr)
		} else if steps = itinerary.Decode(slots); len(steps) == 0 {
			failure = a.t(mw.Lang(r), "course.empty")
		}
		err = a.store.Update(id, func(wf *workflow.Workflow) error {
			wf.Course.FinishDraw(steps, failure)
			res.view = buildCourseView(wf, a.store.Now())
			return nil
		})
		if errors.Is(err, workflow.ErrNotFound) {
			// The workflow was reset while the itinerary was being fetched.
			mw.Redirect(w, r, "/")
			return
		}
		if err != nil {
			a.serverError(w, r, err)
			return
		}
	}
	a.renderCourseFrag(w, r, res)
}

// CourseRevealFrag renders the deck once the shuffle finished.
func (a *app) CourseRevealFrag(w http.ResponseWriter, r *http.Request) {
	res, err := a.snapshotCourse(r)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	if res.missing {
		mw.Redirect(w, r, courseRoutes.Page)
		return
	}
	a.renderCourseFrag(w, r, res)
}

func (a *app) renderCourseFrag(w http.ResponseWriter, r *http.Request, res courseResult) {
	if !mw.IsHTMX(r.Context()) && r.Method != http.MethodGet {
		mw.Redirect(w, r, courseRoutes.Page)
		return
	}
	a.views.renderTemplate(w, r, "frag_course_stage", map[string]any{
		"Lang":      mw.Lang(r),
		"CSRFToken": mw.CSRFToken(r),
		"Course":    res.view,
	})
}

// CoursePickHandler turns over one card; its stop leads the final itinerary.
func (a *app) CoursePickHandler(w http.ResponseWriter, r *http.Request) {
	card, convErr := strconv.Atoi(r.PostFormValue("card"))
	missing := false
	err := a.update(r, func(wf *workflow.Workflow) error {
		if wf.Chain.Require(workflow.StepCourse) != nil {
			missing = true
			return nil
		}
		if convErr != nil {
			return workflow.ErrInvalidCard
		}
		return wf.Course.Pick(card)
	})
	switch {
	case missing, errors.Is(err, workflow.ErrNotReady):
		mw.Redirect(w, r, courseRoutes.Page)
	case err == nil, errors.Is(err, workflow.ErrAlreadyPicked):
		mw.Redirect(w, r, "/postResult")
	case errors.Is(err, workflow.ErrInvalidCard):
		vm := a.newPage(r, "course.title", "course.description", flowCourse)
		vm.Notice = &handlersPkg.Notice{
			Tone:      "warning",
			TitleKey:  "course.invalid.title",
			BodyKey:   "course.invalid.body",
			BackHref:  courseRoutes.Page,
			BackLabel: "notice.back",
		}
		a.views.renderStatus(w, r, http.StatusBadRequest, "notice", vm)
	default:
		a.serverError(w, r, err)
	}
}

package main

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	handlersPkg "github.com/Passbob/dopamine-travel-front/internal/handlers"
	mw "github.com/Passbob/dopamine-travel-front/internal/middleware"
	"github.com/Passbob/dopamine-travel-front/internal/nav"
	"github.com/Passbob/dopamine-travel-front/internal/observability"
	"github.com/Passbob/dopamine-travel-front/internal/seo"
	"github.com/Passbob/dopamine-travel-front/internal/travelapi"
	"github.com/Passbob/dopamine-travel-front/internal/workflow"
)

// flowIndex positions a page in nav.Flow. Pages outside the flow use -1.
const (
	flowProvince = iota
	flowCity
	flowTheme
	flowCourse
	flowResult
)

func (a *app) t(lang, key string) string { return a.bundle.T(lang, key) }

// newPage fills the shared layout fields and default SEO metadata for r.
func (a *app) newPage(r *http.Request, titleKey, descKey string, flow int) handlersPkg.PageData {
	lang := mw.Lang(r)
	title := ""
	if titleKey != "" {
		title = a.t(lang, titleKey)
	}
	meta := a.site.Build(r.URL.Path, title, a.t(lang, descKey))
	meta.OG.Locale = lang
	vm := handlersPkg.PageData{
		Title:       title,
		Lang:        lang,
		SEO:         meta,
		Analytics:   a.analytics,
		CSRFToken:   mw.CSRFToken(r),
		Path:        r.URL.Path,
		Nav:         nav.Build(r.URL.Path),
		Breadcrumbs: nav.Breadcrumbs(r.URL.Path),
	}
	if flow >= 0 {
		vm.Progress = nav.Progress(flow)
	}
	return vm
}

// breadcrumbSchema mirrors the visible breadcrumbs as JSON-LD.
func (a *app) breadcrumbSchema(lang string, crumbs []nav.Crumb) map[string]any {
	items := make([]seo.BreadcrumbItem, 0, len(crumbs))
	for _, c := range crumbs {
		name := c.Label
		if c.LabelKey != "" {
			name = a.t(lang, c.LabelKey)
		}
		items = append(items, seo.BreadcrumbItem{Name: name, Item: a.site.Absolute(c.Href)})
	}
	return seo.BreadcrumbList(items)
}

// missingNotice is rendered when a step is opened without its prior selections.
// It links back to the first step that still needs a selection.
func missingNotice(chain workflow.Chain, step workflow.Step) *handlersPkg.Notice {
	back := "/random"
	switch {
	case chain.Province == nil:
		back = "/random"
	case chain.City == nil:
		back = "/random/city"
	case chain.Theme == nil || chain.Constraint == nil:
		back = "/random/theme"
	case step == workflow.StepResult:
		back = "/course"
	}
	return &handlersPkg.Notice{
		Tone:      "info",
		TitleKey:  "notice.missing.title",
		BodyKey:   "notice.missing.body",
		BackHref:  back,
		BackLabel: "notice.back",
	}
}

// fetchFailure logs a backend error and returns the message shown in place of the step.
func (a *app) fetchFailure(r *http.Request, endpoint string, err error) string {
	lang := mw.Lang(r)
	observability.FromContext(r.Context()).Warn("travel backend request failed",
		zap.String("endpoint", endpoint),
		zap.Error(err),
	)
	var env *travelapi.EnvelopeError
	switch {
	case errors.Is(err, travelapi.ErrUnavailable):
		return a.t(lang, "error.unavailable")
	case errors.As(err, &env) && env.Message != "":
		return env.Message
	default:
		return a.t(lang, "error.fetch")
	}
}

// serverError renders the generic failure page for unexpected errors.
func (a *app) serverError(w http.ResponseWriter, r *http.Request, err error) {
	observability.FromContext(r.Context()).Error("request failed", zap.Error(err))
	vm := a.newPage(r, "error.title", "error.description", -1)
	vm.Notice = &handlersPkg.Notice{
		Tone:      "error",
		TitleKey:  "error.title",
		BodyKey:   "error.description",
		BackHref:  "/",
		BackLabel: "notice.home",
	}
	a.views.renderStatus(w, r, http.StatusInternalServerError, "notice", vm)
}

// NotFoundHandler renders the shared notice page with a 404 status.
func (a *app) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	vm := a.newPage(r, "notfound.title", "notfound.description", -1)
	vm.SEO.Robots = "noindex"
	vm.Notice = &handlersPkg.Notice{
		Tone:      "info",
		TitleKey:  "notfound.title",
		BodyKey:   "notfound.description",
		BackHref:  "/",
		BackLabel: "notice.home",
	}
	a.views.renderStatus(w, r, http.StatusNotFound, "notice", vm)
}

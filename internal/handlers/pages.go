package handlers

import (
	"github.com/Passbob/dopamine-travel-front/internal/nav"
	"github.com/Passbob/dopamine-travel-front/internal/seo"
)

// PageData is a generic view model for pages using the shared layout.
type PageData struct {
	Title     string
	Lang      string
	SEO       seo.Meta
	Analytics Analytics
	CSRFToken string

	Path        string
	Nav         []nav.RenderedItem
	Breadcrumbs []nav.Crumb
	// Progress is the step indicator of the selection flow. Empty outside the flow.
	Progress []nav.Step

	// Optional per-page view model payloads
	Home    *HomeData
	Content any
	Stage   any
	Course  any
	Result  any
	Notice  *Notice
}

// Notice is the informational view rendered instead of a step whose prerequisites are missing
// or whose data could not be loaded.
type Notice struct {
	Tone      string // info, warning, error
	TitleKey  string
	BodyKey   string
	Detail    string
	BackHref  string
	BackLabel string
}

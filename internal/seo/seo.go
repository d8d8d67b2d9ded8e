package seo

import (
	"net/url"
	"strings"
)

type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
	URL         string
	SiteName    string
	Locale      string
}

type Twitter struct {
	Card  string
	Image string
}

// Meta is the head metadata of a rendered page.
type Meta struct {
	Title       string
	Description string
	Keywords    string
	Canonical   string
	Robots      string
	OG          OpenGraph
	Twitter     Twitter
	// JSONLD holds schema.org payloads rendered as separate script elements.
	JSONLD []any
}

// Site carries the values shared by every page.
type Site struct {
	Name         string
	BaseURL      string
	DefaultImage string
}

// Build fills Meta from a page title and description. Empty titles fall back to the site name.
func (s Site) Build(path, title, description string) Meta {
	full := s.Name
	if t := strings.TrimSpace(title); t != "" && t != s.Name {
		full = t + " | " + s.Name
	}
	canonical := s.Absolute(path)
	return Meta{
		Title:       full,
		Description: description,
		Canonical:   canonical,
		OG: OpenGraph{
			Title:       full,
			Description: description,
			Image:       s.DefaultImage,
			Type:        "website",
			URL:         canonical,
			SiteName:    s.Name,
		},
		Twitter: Twitter{Card: "summary_large_image", Image: s.DefaultImage},
	}
}

// Absolute resolves path against the site base URL. Without a base URL the path is returned as is.
func (s Site) Absolute(path string) string {
	if s.BaseURL == "" {
		return path
	}
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return path
	}
	ref, err := url.Parse(path)
	if err != nil {
		return path
	}
	return base.ResolveReference(ref).String()
}

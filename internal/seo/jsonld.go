package seo

import (
	"encoding/json"
	"html/template"

	"github.com/Passbob/dopamine-travel-front/internal/itinerary"
)

const schemaContext = "https://schema.org"

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Script marshals v for embedding inside a <script type="application/ld+json"> element.
func Script(v any) template.JS {
	if v == nil {
		return ""
	}
	return template.JS(JSON(v))
}

// Organization returns a minimal Organization schema.
func Organization(name, url string) map[string]any {
	m := map[string]any{
		"@context": schemaContext,
		"@type":    "Organization",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	return m
}

// WebSite returns a WebSite schema with an optional SearchAction.
func WebSite(name, url, description, searchActionURL string) map[string]any {
	m := map[string]any{
		"@context": schemaContext,
		"@type":    "WebSite",
		"name":     name,
		"author":   map[string]any{"@type": "Organization", "name": name},
	}
	if url != "" {
		m["url"] = url
	}
	if description != "" {
		m["description"] = description
	}
	if searchActionURL != "" {
		m["potentialAction"] = map[string]any{
			"@type":       "SearchAction",
			"target":      searchActionURL + "{search_term_string}",
			"query-input": "required name=search_term_string",
		}
	}
	return m
}

// ServiceInfo describes one random-travel step as a schema.org Service.
type ServiceInfo struct {
	Provider    string
	Name        string
	Description string
	Output      string
	AreaServed  string
	ServiceType string
}

// TravelService returns the free Service schema for a selection step.
func TravelService(info ServiceInfo) map[string]any {
	m := map[string]any{
		"@context":    schemaContext,
		"@type":       "Service",
		"name":        info.Name,
		"description": info.Description,
		"provider":    map[string]any{"@type": "Organization", "name": info.Provider},
		"offers":      freeOffer(""),
	}
	if info.ServiceType != "" {
		m["serviceType"] = info.ServiceType
	}
	if info.AreaServed != "" {
		m["areaServed"] = info.AreaServed
	}
	if info.Output != "" {
		m["serviceOutput"] = info.Output
	}
	return m
}

// TouristTrip returns the itinerary schema of a result page.
func TouristTrip(name, description string, steps []itinerary.Step) map[string]any {
	places := make([]map[string]any, 0, len(steps))
	for i, s := range steps {
		place := map[string]any{
			"@type":    "TouristDestination",
			"name":     s.Name,
			"position": i + 1,
		}
		if s.Description != "" {
			place["description"] = s.Description
		}
		places = append(places, place)
	}
	m := map[string]any{
		"@context":  schemaContext,
		"@type":     "TouristTrip",
		"name":      name,
		"itinerary": places,
		"offers":    freeOffer(description),
	}
	if description != "" {
		m["description"] = description
	}
	return m
}

func freeOffer(description string) map[string]any {
	offer := map[string]any{
		"@type":         "Offer",
		"price":         "0",
		"priceCurrency": "KRW",
	}
	if description != "" {
		offer["description"] = description
	}
	return offer
}

// BreadcrumbItem maps name and absolute item URL.
type BreadcrumbItem struct {
	Name string
	Item string
}

// BreadcrumbList builds schema.org BreadcrumbList.
func BreadcrumbList(items []BreadcrumbItem) map[string]any {
	el := make([]map[string]any, 0, len(items))
	for i, it := range items {
		el = append(el, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     it.Name,
			"item":     it.Item,
		})
	}
	return map[string]any{
		"@context":        schemaContext,
		"@type":           "BreadcrumbList",
		"itemListElement": el,
	}
}

// Package presenter contains the pure transforms between the opaque JSON a
// diagnostic service returns and the shapes the UI renders.  Presenters
// never touch the network or the store; they are functions over the result
// envelope's data.
package presenter

import (
	"fmt"
	"strings"
)

// Severity drives the visual treatment of a section.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeveritySuccess  Severity = "success"
)

// Section is one renderable block of a diagnosis result.
type Section struct {
	Key      string   `json:"key"`
	Title    string   `json:"title"`
	Severity Severity `json:"severity"`
	Text     string   `json:"text"`
}

// Display is the generic presentation of a diagnosis result: the known
// sections that were present, an optional result image link and an optional
// confidence percentage.
type Display struct {
	Sections   []Section `json:"sections"`
	Link       string    `json:"link,omitempty"`
	Confidence *float64  `json:"confidence,omitempty"`
}

// sectionOrder fixes which response keys are rendered and in what order.
// Services are not required to return all of them; absent keys are skipped.
var sectionOrder = []struct {
	key      string
	title    string
	severity Severity
}{
	{"prediction", "Prediction", SeverityCritical},
	{"diagnosis", "Diagnosis", SeverityInfo},
	{"overview", "Overview", SeverityInfo},
	{"symptoms", "Symptoms", SeverityWarning},
	{"remedies", "Remedies", SeveritySuccess},
	{"diet", "Diet Recommendations", SeveritySuccess},
}

// Present builds the generic display from a decoded response.  Non-map data
// yields an empty display rather than an error: the service's shape is not
// this gateway's contract to enforce.
func Present(data any) Display {
	m, ok := data.(map[string]any)
	if !ok {
		return Display{Sections: []Section{}}
	}

	d := Display{Sections: []Section{}}
	for _, s := range sectionOrder {
		v, ok := m[s.key]
		if !ok || v == nil {
			continue
		}
		text := asText(v)
		if text == "" {
			continue
		}
		d.Sections = append(d.Sections, Section{Key: s.key, Title: s.title, Severity: s.severity, Text: text})
	}

	// A link is only usable when it is an actual URL; services report
	// upload failures inside this field.
	if link, ok := m["link"].(string); ok && link != "" && !strings.Contains(link, "Failed") {
		d.Link = link
	}

	switch c := m["confidence"].(type) {
	case float64:
		d.Confidence = &c
	case string:
		var f float64
		if _, err := fmt.Sscanf(c, "%f", &f); err == nil {
			d.Confidence = &f
		}
	}
	return d
}

func asText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64, bool:
		return fmt.Sprint(t)
	default:
		return ""
	}
}

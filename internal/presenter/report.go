package presenter

import "strings"

// ParsedReport is the structured form of the report-analysis service's
// plain-text response.
type ParsedReport struct {
	Personal    map[string]string `json:"personal"`
	Health      map[string]string `json:"health"`
	Allergies   []string          `json:"allergies"`
	Medications []Medication      `json:"medications"`
}

// Medication is one prescribed item extracted from the MEDICATIONS section.
type Medication struct {
	Name         string `json:"name"`
	Date         string `json:"date"`
	Instructions string `json:"instructions"`
}

// ParseReport extracts structured data from the report service's
// line-oriented text.  The format is header lines followed by their value
// on the next line (PREPARED FOR, HEIGHT, WEIGHT, BLOOD PRESSURE,
// MEDICATION NAME), plus two list sections: ALLERGIES entries are prefixed
// with "!", MEDICATIONS are grouped under repeated MEDICATION NAME headers.
// Unknown lines are ignored; the parser never fails.
func ParseReport(response string) ParsedReport {
	out := ParsedReport{
		Personal:    map[string]string{},
		Health:      map[string]string{},
		Allergies:   []string{},
		Medications: []Medication{},
	}

	lines := strings.Split(response, "\n")
	section := ""
	var med *Medication

	next := func(i int) string {
		if i+1 < len(lines) {
			return strings.TrimSpace(lines[i+1])
		}
		return ""
	}

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		switch {
		case strings.Contains(line, "PREPARED FOR"):
			out.Personal["name"] = next(i)
		case strings.HasPrefix(line, "HEIGHT"):
			out.Health["height"] = next(i)
		case strings.HasPrefix(line, "WEIGHT"):
			out.Health["weight"] = next(i)
		case strings.HasPrefix(line, "BLOOD PRESSURE"):
			out.Health["bloodPressure"] = next(i)
		case strings.Contains(line, "MEDICATION NAME"):
			if med != nil {
				out.Medications = append(out.Medications, *med)
			}
			med = &Medication{Name: next(i)}
		case strings.Contains(line, "ALLERGIES"):
			section = "allergies"
		case strings.Contains(line, "MEDICATIONS"):
			section = "medications"
		case strings.HasPrefix(line, "!") && section == "allergies":
			out.Allergies = append(out.Allergies, strings.TrimSpace(strings.TrimPrefix(line, "!")))
		}
	}
	if med != nil {
		out.Medications = append(out.Medications, *med)
	}
	return out
}

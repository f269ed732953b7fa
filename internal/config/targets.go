package config

// targets.go builds the registry of diagnosis targets: the external
// analysis services the gateway dispatches to.  The registry replaces the
// addresses that used to be hardcoded next to the forms; it is assembled
// once at startup and never mutated afterwards.
//
// Image-based targets share a host (DIAG_HOST) and differ by port and path.
// The report and symptom services are reached through fully qualified URLs
// of their own.  Every default can be overridden per target via
// TARGET_<NAME>_HOST, TARGET_<NAME>_PORT and TARGET_<NAME>_PATH.

import (
	"strings"

	"github.com/lostserver/diagnostic-gateway/internal/dispatch"
)

// imageTypes lists the media types accepted by image-based targets.
var imageTypes = []string{"image/jpeg", "image/jpg", "image/png"}

// pdfTypes lists the media types accepted for document uploads.
var pdfTypes = []string{"application/pdf"}

// LoadTargets assembles the diagnosis-target registry from environment
// variables.  The shared image host and the two standalone service URLs are
// required; everything else has defaults matching the deployed services.
func LoadTargets() map[string]dispatch.Target {
	diagHost := must("DIAG_HOST")

	targets := []dispatch.Target{
		{Name: "anemia", Host: diagHost, Port: 5002, Path: "/anemia", Kind: dispatch.InputFile, MediaTypes: imageTypes},
		{Name: "retina", Host: diagHost, Port: 5003, Path: "/retina", Kind: dispatch.InputFile, MediaTypes: imageTypes},
		{Name: "schizo", Host: diagHost, Port: 5001, Path: "/schizo", Kind: dispatch.InputFile, MediaTypes: imageTypes, Extensions: []string{".edf"}},
		{Name: "tb", Host: diagHost, Port: 5004, Path: "/tb", Kind: dispatch.InputFile, MediaTypes: imageTypes},
		{Name: "report", Host: must("REPORT_ANALYSIS_URL"), Kind: dispatch.InputFile, MediaTypes: append(append([]string{}, imageTypes...), pdfTypes...)},
		{Name: "symptoms", Host: must("SYMPTOM_CHECKER_URL"), Kind: dispatch.InputJSON},
		{Name: "bone", Host: diagHost, Port: 5000, Path: "/bone", Kind: dispatch.InputJSON},
	}

	out := make(map[string]dispatch.Target, len(targets))
	for _, t := range targets {
		out[t.Name] = applyOverrides(t)
	}
	return out
}

// applyOverrides folds TARGET_<NAME>_{HOST,PORT,PATH} env overrides into a
// target definition.
func applyOverrides(t dispatch.Target) dispatch.Target {
	prefix := "TARGET_" + strings.ToUpper(t.Name) + "_"
	t.Host = envStr(prefix+"HOST", t.Host)
	t.Port = envInt(prefix+"PORT", t.Port)
	t.Path = envStr(prefix+"PATH", t.Path)
	return t
}

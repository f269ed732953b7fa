package validation

import "errors"

// SymptomPayload is the structured body accepted by the symptom-checker
// target.  It validates locally before dispatch; the external service only
// ever sees well-formed submissions.
type SymptomPayload struct {
	Age      *int      `json:"age"`
	Sex      string    `json:"sex"`
	Symptoms []Symptom `json:"symptoms"`
}

// Symptom is one selected entry from the symptom picker.
type Symptom struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Validate enforces the symptom-checker shape: age present and in range,
// sex present, at least one symptom.
func (p SymptomPayload) Validate() error {
	if p.Age == nil {
		return errors.New("Age is required")
	}
	if *p.Age < 0 {
		return errors.New("Age must be greater than 0")
	}
	if *p.Age > 150 {
		return errors.New("Age must be less than 150")
	}
	if p.Sex == "" {
		return errors.New("Sex is required")
	}
	if len(p.Symptoms) == 0 {
		return errors.New("Please select at least one symptom")
	}
	for _, s := range p.Symptoms {
		if s.Value == "" {
			return errors.New("Symptom value is required")
		}
	}
	return nil
}

// BonePayload is the bone-health questionnaire body.  The upstream service
// expects its own field names, so Remap produces the outbound form.
type BonePayload struct {
	Age            *int   `json:"age"`
	Sex            string `json:"sex"`
	MedicalProblem string `json:"medicalProblem"`
	SurgeryHistory string `json:"surgeryHistory"`
	DrugHistory    string `json:"drugHistory"`
}

// Validate enforces the questionnaire's required fields.
func (p BonePayload) Validate() error {
	if p.Age == nil {
		return errors.New("Age is required")
	}
	if *p.Age < 0 || *p.Age > 150 {
		return errors.New("Age must be between 0 and 150")
	}
	if p.Sex == "" {
		return errors.New("Sex is required")
	}
	if p.MedicalProblem == "" {
		return errors.New("Medical problem is required")
	}
	if p.SurgeryHistory == "" {
		return errors.New("Surgery history is required")
	}
	if p.DrugHistory == "" {
		return errors.New("Drug history is required")
	}
	return nil
}

// Remap translates the questionnaire into the field names the bone-health
// service expects.
func (p BonePayload) Remap() map[string]any {
	return map[string]any{
		"Age":    *p.Age,
		"SEX":    p.Sex,
		"Prob":   p.MedicalProblem,
		"INJURY": p.SurgeryHistory,
		"DRUG":   p.DrugHistory,
	}
}

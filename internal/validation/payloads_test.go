package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(n int) *int { return &n }

func TestSymptomPayloadValidate(t *testing.T) {
	tests := []struct {
		name    string
		payload SymptomPayload
		errMsg  string
	}{
		{
			name: "valid",
			payload: SymptomPayload{
				Age: intp(33), Sex: "female",
				Symptoms: []Symptom{{Value: "headache", Label: "Headache"}},
			},
		},
		{
			name:    "age missing",
			payload: SymptomPayload{Sex: "male", Symptoms: []Symptom{{Value: "cough", Label: "Cough"}}},
			errMsg:  "Age is required",
		},
		{
			name: "age out of range",
			payload: SymptomPayload{
				Age: intp(151), Sex: "male",
				Symptoms: []Symptom{{Value: "cough", Label: "Cough"}},
			},
			errMsg: "Age must be less than 150",
		},
		{
			name:    "sex missing",
			payload: SymptomPayload{Age: intp(40), Symptoms: []Symptom{{Value: "cough", Label: "Cough"}}},
			errMsg:  "Sex is required",
		},
		{
			name:    "no symptoms",
			payload: SymptomPayload{Age: intp(40), Sex: "male"},
			errMsg:  "Please select at least one symptom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.errMsg)
			}
		})
	}
}

func TestBonePayloadValidateAndRemap(t *testing.T) {
	p := BonePayload{
		Age:            intp(61),
		Sex:            "F",
		MedicalProblem: "joint pain",
		SurgeryHistory: "none",
		DrugHistory:    "calcium supplements",
	}
	require.NoError(t, p.Validate())

	out := p.Remap()
	assert.Equal(t, map[string]any{
		"Age":    61,
		"SEX":    "F",
		"Prob":   "joint pain",
		"INJURY": "none",
		"DRUG":   "calcium supplements",
	}, out)

	assert.Error(t, BonePayload{}.Validate())
	assert.Error(t, BonePayload{Age: intp(61), Sex: "F"}.Validate())
}

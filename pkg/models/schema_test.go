package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateArguments_AcceptsMatchingArguments(t *testing.T) {
	p := ParameterSchema{
		Type: "object",
		Properties: map[string]json.RawMessage{
			"query": json.RawMessage(`{"type":"string"}`),
		},
		Required: []string{"query"},
	}

	err := p.ValidateArguments(`{"query":"hello"}`)
	assert.NoError(t, err)
}

func TestValidateArguments_RejectsMissingRequiredProperty(t *testing.T) {
	p := ParameterSchema{
		Type: "object",
		Properties: map[string]json.RawMessage{
			"query": json.RawMessage(`{"type":"string"}`),
		},
		Required: []string{"query"},
	}

	err := p.ValidateArguments(`{}`)
	assert.Error(t, err)
}

func TestValidateArguments_RejectsWrongType(t *testing.T) {
	p := ParameterSchema{
		Type: "object",
		Properties: map[string]json.RawMessage{
			"count": json.RawMessage(`{"type":"integer"}`),
		},
	}

	err := p.ValidateArguments(`{"count":"not a number"}`)
	assert.Error(t, err)
}

func TestValidateArguments_RejectsMalformedJSON(t *testing.T) {
	p := ParameterSchema{Type: "object"}
	err := p.ValidateArguments(`{not json`)
	assert.Error(t, err)
}

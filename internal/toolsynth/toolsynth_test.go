package toolsynth

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haasonsaas/agentsynth/pkg/models"
)

func TestAugmentWithDependencies(t *testing.T) {
	q := augmentWithDependencies("what is x?", []DependencyRef{{Question: "what is y?", Answer: "5"}})
	assert.Contains(t, q, "Additional Information")
	assert.Contains(t, q, "what is y?")
	assert.Contains(t, q, "5")

	plain := augmentWithDependencies("what is x?", nil)
	assert.Equal(t, "what is x?", plain)
}

func TestBackwardCompatible(t *testing.T) {
	original := models.ToolDefinition{Parameters: models.ParameterSchema{
		Properties: map[string]json.RawMessage{"a": json.RawMessage(`{}`)},
	}}
	compatible := models.ToolDefinition{Parameters: models.ParameterSchema{
		Properties: map[string]json.RawMessage{"a": json.RawMessage(`{}`), "b": json.RawMessage(`{}`)},
	}}
	incompatible := models.ToolDefinition{Parameters: models.ParameterSchema{
		Properties: map[string]json.RawMessage{"b": json.RawMessage(`{}`)},
	}}

	assert.True(t, backwardCompatible(original, compatible))
	assert.False(t, backwardCompatible(original, incompatible))
}

func TestUsesOnlyDeclaredParams(t *testing.T) {
	doc := models.ToolDefinition{Parameters: models.ParameterSchema{Required: []string{"city"}}}
	assert.True(t, usesOnlyDeclaredParams(`get_weather(city="Paris")`, doc))
	assert.False(t, usesOnlyDeclaredParams(`get_weather(town="Paris")`, doc))
}

func TestPrintCall(t *testing.T) {
	assert.Equal(t, `print(f(x=1))`, printCall("f(x=1)"))
}

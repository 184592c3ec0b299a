package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON_StrictAndFence(t *testing.T) {
	raw := `{"a": 1, "b": [1,2,3]}`
	fenced := "```json\n" + raw + "\n```"

	direct := ParseJSON(raw)
	wrapped := ParseJSON(fenced)

	require.NoError(t, direct.Err)
	require.NoError(t, wrapped.Err)
	assert.Equal(t, direct.Value, wrapped.Value)
}

func TestParseJSON_ThinkBlockStripped(t *testing.T) {
	text := "I should check the schema first.</think>\n{\"score\": 1}"
	p := ParseJSON(text)
	require.NoError(t, p.Err)
	assert.Contains(t, p.Thought, "check the schema")
	assert.Equal(t, map[string]any{"score": float64(1)}, p.Value)
}

func TestParseJSON_RegexFallback(t *testing.T) {
	text := "Sure, here you go: {\"ok\": true} — let me know if you need more."
	p := ParseJSON(text)
	require.NoError(t, p.Err)
	assert.Equal(t, map[string]any{"ok": true}, p.Value)
}

func TestParseJSON_NoValueNeverPanics(t *testing.T) {
	p := ParseJSON("this is not json at all")
	assert.Error(t, p.Err)
}

func TestParseXMLField_CDATAPreferred(t *testing.T) {
	text := `<question><![CDATA[What is 2<3?]]></question>`
	got := ParseXMLField(text, "question")
	assert.Equal(t, "What is 2<3?", got)
}

func TestParseXMLField_StripsComments(t *testing.T) {
	text := `<question>What <!-- internal note --> next?</question>`
	got := ParseXMLField(text, "question")
	assert.Equal(t, "What  next?", got)
}

func TestParseVariations_TaggedBlocks(t *testing.T) {
	text := `
<variation_1><question>Q1</question><context>C1</context><constraints>K1</constraints></variation_1>
<variation_2><question>Q2</question><context>C2</context><constraints>K2</constraints></variation_2>
`
	got := ParseVariations(text, "diverse")
	require.Len(t, got, 2)
	assert.Equal(t, "Q1", got[0].Question)
	assert.Equal(t, "diverse", got[1].Mode)
}

func TestParseVariations_FallbackToBareQuestions(t *testing.T) {
	text := `<question>Only one</question>`
	got := ParseVariations(text, "complicate")
	require.Len(t, got, 1)
	assert.Equal(t, "Only one", got[0].Question)
}

package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haasonsaas/agentsynth/pkg/models"
)

func TestSplitCommaList(t *testing.T) {
	assert.Equal(t, []string{"search", "fetch"}, splitCommaList("search, fetch"))
	assert.Nil(t, splitCommaList(""))
}

func TestSamplePersona_NeverSetsEthnicityOrRegion(t *testing.T) {
	for i := 0; i < 20; i++ {
		p := SamplePersona()
		assert.NotZero(t, p.Occupation)
	}
	// Persona has no Ethnicity/Region fields at all — compile-time enforced.
}

func TestEmitRecords_OriginalAlwaysEmptyAugmentInfo(t *testing.T) {
	base := models.QueryInfo{GeneratedQuestion: "what is the weather?"}
	variations := []models.Variation{
		{Question: "what will the weather be like tomorrow in a city with heavy traffic?", Mode: "complicate"},
	}

	records := EmitRecords(base, models.AugmentComplicate, variations)

	assert := assert.New(t)
	assert.Len(records, 2)
	assert.Equal(&models.AugmentedQueryInfo{}, records[0].AugmentedQueryInfo)
	assert.Equal("what is the weather?", records[0].GeneratedQuestion)

	assert.Equal("complicate", records[1].AugmentedQueryInfo.Mode)
	assert.Equal(variations[0].Question, records[1].GeneratedQuestion)
}

func TestEmitRecords_NoVariationsStillEmitsOriginal(t *testing.T) {
	base := models.QueryInfo{GeneratedQuestion: "q"}
	records := EmitRecords(base, models.AugmentDiverse, nil)
	assert.Len(t, records, 1)
}

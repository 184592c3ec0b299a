package judge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haasonsaas/agentsynth/internal/semreg"
)

func TestRun_SubstitutesSafeDefaultOnFailure(t *testing.T) {
	sems := semreg.New(5, nil)
	safe := Vote{Score: 1.0, Bool: true}

	judges := []Func{
		func(ctx context.Context) (Vote, error) { return Vote{Score: 0.2}, nil },
		func(ctx context.Context) (Vote, error) { return Vote{}, errors.New("boom") },
	}

	votes := Run(context.Background(), sems, "test_workload", safe, judges)

	assert := assert.New(t)
	assert.Len(votes, 2)
	assert.Equal(0.2, votes[0].Score)
	assert.False(votes[0].IsSafeDefault)
	assert.Equal(1.0, votes[1].Score)
	assert.True(votes[1].IsSafeDefault, "failed judge must fall back to the safe-default vote")
}

func TestMeanOfScores(t *testing.T) {
	votes := []Vote{{Score: 1}, {Score: 0}, {Score: 0.5}}
	assert.InDelta(t, 0.5, MeanOfScores(votes), 1e-9)
}

func TestMajorityOfBool(t *testing.T) {
	assert.True(t, MajorityOfBool([]Vote{{Bool: true}, {Bool: true}, {Bool: false}}))
	assert.False(t, MajorityOfBool([]Vote{{Bool: true}, {Bool: false}}), "a tie resolves false")
}

func TestAllMatch(t *testing.T) {
	assert.True(t, AllMatch([]Vote{{Bool: true}, {Bool: true}}))
	assert.False(t, AllMatch([]Vote{{Bool: true}, {Bool: false}}))
}

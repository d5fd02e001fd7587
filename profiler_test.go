package pick

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProfilerMeanAndReset(t *testing.T) {
	p := NewProfiler()
	for i := 0; i < 3; i++ {
		p.BeginScope("render")
		time.Sleep(time.Millisecond)
		p.EndScope("render")
	}
	p.EndScope("never-begun")
	p.SetCount("drawn", 4)

	assert.Equal(t, []string{"render"}, p.Order)
	assert.Equal(t, 3, p.Runs["render"])
	assert.GreaterOrEqual(t, p.Mean("render"), time.Millisecond)
	assert.Contains(t, p.Summary(), "render=")
	assert.Contains(t, p.GetStatsString(), "drawn")

	p.Reset()
	assert.Equal(t, []string{"render"}, p.Order)
	assert.Zero(t, p.Mean("render"))
	assert.Empty(t, p.Counts)
	assert.Zero(t, p.Mean("missing"))
}

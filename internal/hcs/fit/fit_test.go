package fit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpolatorHit(t *testing.T) {
	ip := NewInterpolator()
	s := Series{
		Sample: "CHEM-1",
		Conc:   []float64{1, 10, 100},
		Resp:   []float64{0, 2, 4},
	}

	summary, err := ip.Summarize(context.Background(), s, 1.5)
	require.NoError(t, err)

	assert.True(t, summary.Hit)
	require.NotNil(t, summary.MEC)
	assert.Equal(t, 10.0, *summary.MEC)
	// Half of the maximal magnitude 4 is reached exactly at the second
	// tested concentration.
	require.NotNil(t, summary.AC50)
	assert.Equal(t, 10.0, *summary.AC50)
	assert.Greater(t, summary.FitQuality, 0.8)
	assert.LessOrEqual(t, summary.FitQuality, 1.0)
}

func TestInterpolatorNoHit(t *testing.T) {
	ip := NewInterpolator()
	s := Series{
		Sample: "CHEM-2",
		Conc:   []float64{1, 10, 100},
		Resp:   []float64{0.1, -0.2, 0.3},
	}

	summary, err := ip.Summarize(context.Background(), s, 1.5)
	require.NoError(t, err)

	assert.False(t, summary.Hit)
	assert.Nil(t, summary.MEC)
	assert.Nil(t, summary.AC50)
}

func TestInterpolatorNegativeDirection(t *testing.T) {
	// Downward responses count by magnitude.
	ip := NewInterpolator()
	s := Series{
		Sample: "CHEM-3",
		Conc:   []float64{1, 10, 100},
		Resp:   []float64{-0.5, -2, -4},
	}

	summary, err := ip.Summarize(context.Background(), s, 1.5)
	require.NoError(t, err)
	assert.True(t, summary.Hit)
	require.NotNil(t, summary.MEC)
	assert.Equal(t, 10.0, *summary.MEC)
}

func TestInterpolatorCollapsesReplicates(t *testing.T) {
	ip := NewInterpolator()
	s := Series{
		Sample: "CHEM-4",
		Conc:   []float64{10, 10, 10, 1, 1, 1},
		Resp:   []float64{2.0, 2.2, 1.8, 0.1, 0.0, -0.1},
	}

	summary, err := ip.Summarize(context.Background(), s, 1.5)
	require.NoError(t, err)
	assert.True(t, summary.Hit)
	require.NotNil(t, summary.MEC)
	assert.Equal(t, 10.0, *summary.MEC)
}

func TestInterpolatorAC50Interpolated(t *testing.T) {
	ip := NewInterpolator()
	s := Series{
		Sample: "CHEM-5",
		Conc:   []float64{1, 2, 3},
		Resp:   []float64{0, 1, 4},
	}

	summary, err := ip.Summarize(context.Background(), s, 0.5)
	require.NoError(t, err)
	require.NotNil(t, summary.AC50)
	// Target magnitude 2 sits a third of the way between the responses at
	// concentrations 2 and 3.
	assert.InDelta(t, 2.0+1.0/3.0, *summary.AC50, 1e-9)
}

func TestInterpolatorRejectsBadInput(t *testing.T) {
	ip := NewInterpolator()
	s := Series{Sample: "CHEM-6", Conc: []float64{1, 10}, Resp: []float64{0, 2}}

	_, err := ip.Summarize(context.Background(), s, 0)
	assert.Error(t, err)

	_, err = ip.Summarize(context.Background(), Series{
		Sample: "CHEM-6", Conc: []float64{1, 10}, Resp: []float64{0},
	}, 1.5)
	assert.Error(t, err)

	// A single distinct concentration is not a series.
	_, err = ip.Summarize(context.Background(), Series{
		Sample: "CHEM-6", Conc: []float64{10, 10}, Resp: []float64{2, 2.2},
	}, 1.5)
	assert.Error(t, err)
}

func TestSummarizerFunc(t *testing.T) {
	called := false
	f := SummarizerFunc(func(ctx context.Context, s Series, cutoff float64) (Summary, error) {
		called = true
		return Summary{Hit: true}, nil
	})

	summary, err := f.Summarize(context.Background(), Series{}, 1)
	require.NoError(t, err)
	assert.True(t, called)
	assert.True(t, summary.Hit)
}

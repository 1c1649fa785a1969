package regime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validVectors() map[Regime]WeightVector {
	equal := WeightVector{
		"trend":             0.2,
		"volume":            0.2,
		"volatility":        0.2,
		"relative_strength": 0.2,
		"positioning":       0.2,
	}
	return map[Regime]WeightVector{
		Bull:     equal,
		Sideways: equal,
		Bear:     equal,
	}
}

func TestNewWeightTable_ValidVectors(t *testing.T) {
	table, err := NewWeightTable(validVectors())
	require.NoError(t, err)

	for _, r := range All() {
		wv := table.WeightsFor(r)
		assert.InDelta(t, 1.0, wv.Sum(), WeightSumTolerance)
	}
}

func TestNewWeightTable_RejectsBadSum(t *testing.T) {
	vectors := validVectors()
	vectors[Bull] = WeightVector{"trend": 0.5, "volume": 0.6}

	_, err := NewWeightTable(vectors)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum")
}

func TestNewWeightTable_RejectsUnknownComponent(t *testing.T) {
	vectors := validVectors()
	// Sums to 1, but "momentum" is a typo for "volume".
	vectors[Bull] = WeightVector{
		"trend":             0.30,
		"momentum":          0.25,
		"volatility":        0.10,
		"relative_strength": 0.25,
		"positioning":       0.10,
	}

	_, err := NewWeightTable(vectors)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "momentum")
}

func TestNewWeightTable_RejectsMissingRegime(t *testing.T) {
	vectors := validVectors()
	delete(vectors, Bear)

	_, err := NewWeightTable(vectors)
	assert.Error(t, err)
}

func TestNewWeightTable_RejectsNegativeWeight(t *testing.T) {
	vectors := validVectors()
	vectors[Sideways] = WeightVector{"trend": 1.2, "volume": -0.2}

	_, err := NewWeightTable(vectors)
	assert.Error(t, err)
}

func TestNewWeightTable_ToleratesEpsilon(t *testing.T) {
	vectors := validVectors()
	vectors[Bull] = WeightVector{
		"trend":             0.2,
		"volume":            0.2,
		"volatility":        0.2,
		"relative_strength": 0.2,
		"positioning":       0.2 + 5e-7,
	}

	_, err := NewWeightTable(vectors)
	assert.NoError(t, err, "sums within 1e-6 must pass")
}

func TestWeightTable_CopiesInput(t *testing.T) {
	vectors := validVectors()
	table, err := NewWeightTable(vectors)
	require.NoError(t, err)

	vectors[Bull]["trend"] = 0.9
	assert.InDelta(t, 0.2, table.WeightsFor(Bull)["trend"], 1e-12,
		"mutating the source map must not affect the table")
}

func TestWeightTable_UnknownRegimeFallsBackToSideways(t *testing.T) {
	table, err := NewWeightTable(validVectors())
	require.NoError(t, err)

	wv := table.WeightsFor(Regime(99))
	assert.InDelta(t, 1.0, wv.Sum(), WeightSumTolerance)
}

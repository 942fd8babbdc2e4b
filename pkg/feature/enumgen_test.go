package feature_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbilling/billingkit/pkg/feature"
)

func TestGenerateEnumSource(t *testing.T) {
	t.Parallel()

	t.Run("renders constants for every case", func(t *testing.T) {
		t.Parallel()

		src, err := feature.GenerateEnumSource("features", "FeaturesMap", []feature.EnumCase{
			{Name: "API_ACCESS", Value: "feature-api"},
			{Name: "PRIORITY_SUPPORT", Value: "feature-priority-support"},
		})
		require.NoError(t, err)

		out := string(src)
		assert.Contains(t, out, "package features")
		assert.Contains(t, out, "type FeaturesMap string")
		assert.Contains(t, out, `API_ACCESS`)
		assert.Contains(t, out, `"feature-api"`)
		assert.Contains(t, out, `PRIORITY_SUPPORT`)
		assert.Contains(t, out, "func FeaturesMapValues() []FeaturesMap")
		assert.Contains(t, out, "Code generated by featuregen. DO NOT EDIT.")
	})

	t.Run("no cases is an error", func(t *testing.T) {
		t.Parallel()

		_, err := feature.GenerateEnumSource("features", "FeaturesMap", nil)
		assert.ErrorIs(t, err, feature.ErrNoFeatures)
	})
}

package risk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy_IsACopy(t *testing.T) {
	p := DefaultPolicy()
	p.LimitsByLevel[LevelMedium] = RiskLimits{}
	p.CategoryScores[CategorySecurity] = 99

	limits, ok := RiskLimitsByLevel(LevelMedium)
	require.True(t, ok)
	assert.Equal(t, 10.0, limits.DoubleLongETF)
	assert.Equal(t, 3, CategoryRiskScore(CategorySecurity))
}

func TestDefaultPolicy_Validates(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())
}

func TestParsePolicy_OverridesOnlyWhatIsGiven(t *testing.T) {
	doc := `
limits_by_level:
  medium:
    double_long_etf: 0
    security: 25
    single_etf: 45
category_scores:
  misc: 3
`
	p, err := ParsePolicy([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, RiskLimits{DoubleLongETF: 0, Security: 25, SingleETF: 45}, p.LimitsByLevel[LevelMedium])
	assert.Equal(t, RiskLimits{DoubleLongETF: 30, Security: 50, SingleETF: 70}, p.LimitsByLevel[LevelHigh])
	assert.Equal(t, 3, p.CategoryScores[CategoryMisc])
	assert.Equal(t, 4, p.CategoryScores[CategoryDoubleLongETF])

	// A zero cap means any exposure is a violation, with no warning band
	result := p.ValidateRiskLimits(
		[]CategoryAllocation{{Category: CategoryDoubleLongETF, TargetPercentage: 1}},
		RiskAllocation{Medium: 100},
	)
	require.Len(t, result.Violations, 1)
	assert.Empty(t, result.Warnings)
}

func TestParsePolicy_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown level", "limits_by_level:\n  extreme:\n    security: 90\n"},
		{"negative limit", "limits_by_level:\n  high:\n    security: -1\n"},
		{"infinite limit", "limits_by_level:\n  high:\n    security: .inf\n"},
		{"not-a-number limit", "limits_by_level:\n  medium:\n    single_etf: .nan\n"},
		{"unknown category score", "category_scores:\n  crypto: 5\n"},
		{"negative score", "category_scores:\n  misc: -2\n"},
		{"unknown category level", "category_levels:\n  crypto: high\n"},
		{"unknown target level", "category_levels:\n  misc: extreme\n"},
		{"malformed yaml", "limits_by_level: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePolicy([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("category_levels:\n  security: high\n"), 0o644))

	p, err := LoadPolicy(path)
	require.NoError(t, err)

	level, ok := p.CategoryRiskLevel(CategorySecurity)
	assert.True(t, ok)
	assert.Equal(t, LevelHigh, level)

	_, err = LoadPolicy(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read policy file")
}

func TestCategoryRiskLevel(t *testing.T) {
	tests := []struct {
		category HoldingCategory
		level    RiskLevel
	}{
		{CategoryBasketETF, LevelMedium},
		{CategorySingleETF, LevelMedium},
		{CategoryMisc, LevelMedium},
		{CategoryAutoAdded, LevelMedium},
		{CategorySecurity, LevelMediumHigh},
		{CategoryDoubleLongETF, LevelHigh},
	}
	for _, tt := range tests {
		level, ok := CategoryRiskLevel(tt.category)
		assert.True(t, ok)
		assert.Equal(t, tt.level, level, "level for %s", tt.category)
	}

	_, ok := CategoryRiskLevel("crypto")
	assert.False(t, ok)
}

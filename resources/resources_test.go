package resources

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grocerycheck/domain/agegate"
	"grocerycheck/domain/scenario"
)

func TestEmbeddedSuiteLoads(t *testing.T) {
	reg := scenario.NewRegistry()
	require.NoError(t, scenario.NewLoader(reg).LoadFromFS(ScenarioFiles, ScenarioDir))

	suite := reg.Get("grocerymate")
	require.NotNil(t, suite)

	kinds := make(map[scenario.Kind]bool)
	for _, sc := range suite.Scenarios {
		kinds[sc.Kind] = true
	}
	for _, k := range scenario.Kinds() {
		assert.True(t, kinds[k], "embedded suite has no %s scenario", k)
	}
}

func TestEmbeddedSuite_AgeBoundaries(t *testing.T) {
	reg := scenario.NewRegistry()
	require.NoError(t, scenario.NewLoader(reg).LoadFromFS(ScenarioFiles, ScenarioDir))
	suite := reg.Get("grocerymate")
	now := time.Now()

	want := map[string]agegate.Outcome{
		"age-exactly-18":      agegate.Admitted,
		"age-one-day-under":   agegate.Rejected,
		"age-adult":           agegate.Admitted,
		"age-empty":           agegate.ValidationError,
		"age-impossible-date": agegate.ValidationError,
	}
	for _, sc := range suite.Scenarios {
		outcome, ok := want[sc.Name]
		if !ok {
			continue
		}
		date := sc.ResolveBirthDate(now)
		assert.Equal(t, outcome, sc.ExpectedOutcome(date, now), sc.Name)
	}
}

func TestDefaultConfigEmbedded(t *testing.T) {
	assert.Contains(t, string(DefaultConfig), "grocerymate.masterschool.com")
}

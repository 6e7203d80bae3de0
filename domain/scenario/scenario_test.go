package scenario

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grocerycheck/domain/agegate"
)

const suiteYAML = `
name: smoke
description: test suite
scenarios:
  - name: adult
    kind: age-gate
    tags: [age, smoke]
    age: {years: 18}
  - name: empty-date
    kind: age-gate
    birthDate: ""
    expect: validation_error
  - name: review
    kind: review-lifecycle
    stars: 4
    comment: nice
    timeout: 90s
  - name: matrix
    kind: rating
`

func TestParse(t *testing.T) {
	suite, err := Parse([]byte(suiteYAML))
	require.NoError(t, err)

	assert.Equal(t, "smoke", suite.Name)
	require.Len(t, suite.Scenarios, 4)

	adult := suite.Scenarios[0]
	assert.Equal(t, KindAgeGate, adult.Kind)
	require.NotNil(t, adult.Age)
	assert.Equal(t, 18, adult.Age.Years)
	assert.Nil(t, adult.BirthDate)

	empty := suite.Scenarios[1]
	require.NotNil(t, empty.BirthDate)
	assert.Equal(t, "", *empty.BirthDate)
	assert.Equal(t, agegate.ValidationError, empty.Expect)

	rev := suite.Scenarios[2]
	assert.Equal(t, 90*time.Second, rev.Timeout)
	assert.Equal(t, []int{4}, rev.StarValues())

	assert.Equal(t, []int{1, 2, 3, 4, 5}, suite.Scenarios[3].StarValues())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown kind", "name: s\nscenarios:\n  - name: a\n    kind: teleport\n"},
		{"duplicate names", "name: s\nscenarios:\n  - name: a\n    kind: login\n  - name: a\n    kind: login\n"},
		{"age gate without date", "name: s\nscenarios:\n  - name: a\n    kind: age-gate\n"},
		{"age gate with both", "name: s\nscenarios:\n  - name: a\n    kind: age-gate\n    birthDate: \"01-01-2000\"\n    age: {years: 18}\n"},
		{"bad expect", "name: s\nscenarios:\n  - name: a\n    kind: age-gate\n    birthDate: x\n    expect: maybe\n"},
		{"review without stars", "name: s\nscenarios:\n  - name: a\n    kind: review-lifecycle\n"},
		{"rating out of range", "name: s\nscenarios:\n  - name: a\n    kind: rating\n    stars: 6\n"},
		{"login-rejected without password", "name: s\nscenarios:\n  - name: a\n    kind: login-rejected\n"},
		{"bad timeout", "name: s\nscenarios:\n  - name: a\n    kind: login\n    timeout: soon\n"},
		{"no suite name", "scenarios:\n  - name: a\n    kind: login\n"},
		{"not yaml", "name: [unterminated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestScenario_ExpectedOutcome(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	under := &Scenario{Kind: KindAgeGate, Age: &AgeSpec{Years: 18, DayOffset: -1}}
	date := under.ResolveBirthDate(now)
	assert.Equal(t, agegate.Rejected, under.ExpectedOutcome(date, now))

	forced := &Scenario{Kind: KindAgeGate, Expect: agegate.Admitted}
	assert.Equal(t, agegate.Admitted, forced.ExpectedOutcome("32-12-2005", now))
}

func TestSuite_Select(t *testing.T) {
	suite, err := Parse([]byte(suiteYAML))
	require.NoError(t, err)

	all, err := suite.Select(nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	picked, err := suite.Select([]string{"matrix", "smoke"})
	require.NoError(t, err)
	require.Len(t, picked, 2)
	assert.Equal(t, "adult", picked[0].Name)
	assert.Equal(t, "matrix", picked[1].Name)

	_, err = suite.Select([]string{"nope"})
	assert.Error(t, err)
}

func TestKind(t *testing.T) {
	assert.True(t, KindRating.Valid())
	assert.False(t, Kind("x").Valid())
	assert.False(t, KindLogin.NeedsLogin())
	assert.False(t, KindLoginRejected.NeedsLogin())
	assert.True(t, KindShippingThreshold.NeedsLogin())
}

func TestLoader_LoadFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"suites/smoke.yaml": {Data: []byte(suiteYAML)},
		"suites/other.yml":  {Data: []byte("name: other\nscenarios:\n  - name: l\n    kind: login\n")},
		"suites/README.md":  {Data: []byte("ignored")},
	}

	reg := NewRegistry()
	require.NoError(t, NewLoader(reg).LoadFromFS(fsys, "suites"))

	assert.Equal(t, 2, reg.Count())
	assert.Equal(t, []string{"other", "smoke"}, reg.List())
	assert.NotNil(t, reg.Get("smoke"))
	assert.Nil(t, reg.Get("missing"))
}

func TestLoader_ReportsFile(t *testing.T) {
	fsys := fstest.MapFS{
		"suites/bad.yaml": {Data: []byte("name: bad\nscenarios:\n  - name: a\n    kind: nope\n")},
	}
	err := NewLoader(NewRegistry()).LoadFromFS(fsys, "suites")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "suites/bad.yaml")

	assert.Error(t, NewLoader(NewRegistry()).LoadFromFS(fsys, "missing"))
}

func TestLoader_LoadPath(t *testing.T) {
	file := filepath.Join(t.TempDir(), "smoke.yaml")
	require.NoError(t, os.WriteFile(file, []byte(suiteYAML), 0o644))

	reg := NewRegistry()
	require.NoError(t, NewLoader(reg).LoadPath(file))
	require.NotNil(t, reg.Get("smoke"))
	assert.Len(t, reg.Get("smoke").Scenarios, 4)

	assert.Error(t, NewLoader(reg).LoadPath(filepath.Join(t.TempDir(), "missing.yaml")))
}

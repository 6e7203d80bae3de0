package agegate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, time.March, 15, 14, 30, 0, 0, time.UTC)

func TestExpect(t *testing.T) {
	tests := []struct {
		name      string
		birthDate string
		want      Outcome
	}{
		{"exactly 18 years of 365 days", BirthDateForAge(now, 18, 0), Admitted},
		{"one day under", BirthDateForAge(now, 18, -1), Rejected},
		{"one day over", BirthDateForAge(now, 18, 1), Admitted},
		{"adult", "01-01-1990", Admitted},
		{"child", "01-01-2020", Rejected},
		{"born in the future", "01-01-2030", Rejected},
		{"empty", "", ValidationError},
		{"blank", "   ", ValidationError},
		{"day 32", "32-12-2005", ValidationError},
		{"30 February", "30-02-2004", ValidationError},
		{"wrong order", "2005-01-01", ValidationError},
		{"slashes", "01/01/2005", ValidationError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Expect(tt.birthDate, now), "birth date %q", tt.birthDate)
		})
	}
}

func TestExpect_IgnoresLeapDays(t *testing.T) {
	// Four leap days fall in the window, so 18*365 days is reached four days
	// before the calendar 18th birthday.
	assert.Equal(t, "19-03-2008", BirthDateForAge(now, 18, 0))
	assert.Equal(t, Admitted, Expect("19-03-2008", now))
	assert.Equal(t, Rejected, Expect("20-03-2008", now))
	assert.Equal(t, Admitted, Expect(now.AddDate(-18, 0, 0).Format(Layout), now))
}

func TestExpect_AllBoundaryDaysAcrossAYear(t *testing.T) {
	for d := 0; d < 366; d++ {
		day := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
		require.Equal(t, Admitted, Expect(BirthDateForAge(day, 18, 0), day), day.Format(Layout))
		require.Equal(t, Rejected, Expect(BirthDateForAge(day, 18, -1), day), day.Format(Layout))
	}
}

func TestParseBirthDate(t *testing.T) {
	got, err := ParseBirthDate(" 01-01-2005 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2005, time.January, 1, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseBirthDate("")
	assert.True(t, errors.Is(err, ErrEmptyBirthDate))

	_, err = ParseBirthDate("32-12-2005")
	assert.True(t, errors.Is(err, ErrInvalidBirthDate))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		message string
		want    Outcome
		ok      bool
	}{
		{"You are of age", Admitted, true},
		{"  you are OF AGE!  ", Admitted, true},
		{"You are underage", Rejected, true},
		{"Sorry, you are underage and cannot shop here", Rejected, true},
		{"Please enter your birth date", ValidationError, true},
		{"Invalid date", ValidationError, true},
		{"Please enter a valid date", ValidationError, true},
		{"Welcome back", OutcomeUnknown, false},
		{"", OutcomeUnknown, false},
	}
	for _, tt := range tests {
		got, ok := Classify(tt.message)
		assert.Equal(t, tt.want, got, tt.message)
		assert.Equal(t, tt.ok, ok, tt.message)
	}
}

func TestOutcome_RoundTrip(t *testing.T) {
	for _, o := range []Outcome{Admitted, Rejected, ValidationError, NotPresent} {
		got, err := ParseOutcome(o.String())
		require.NoError(t, err)
		assert.Equal(t, o, got)
	}
	_, err := ParseOutcome("maybe")
	assert.Error(t, err)

	assert.True(t, NotPresent.IsAdmission())
	assert.False(t, Rejected.IsAdmission())
	assert.Equal(t, "rejected (You are underage)", Result{Outcome: Rejected, Reason: MsgUnderage}.String())
}

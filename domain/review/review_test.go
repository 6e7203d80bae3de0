package review

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"grocerycheck/core/fault"
)

func TestValidateStars(t *testing.T) {
	for n := MinStars; n <= MaxStars; n++ {
		assert.NoError(t, ValidateStars(n))
	}
	assert.Error(t, ValidateStars(0))
	assert.Error(t, ValidateStars(6))
}

func TestFindByAuthor(t *testing.T) {
	reviews := []Review{
		{Author: "Someone", Stars: 2, Text: "meh"},
		{Author: " autotestg ", Stars: 4, Text: "great"},
	}
	got, ok := FindByAuthor(reviews, "AutoTestG")
	assert.True(t, ok)
	assert.Equal(t, 4, got.Stars)

	_, ok = FindByAuthor(reviews, "nobody")
	assert.False(t, ok)
}

func TestClassifyRejection(t *testing.T) {
	tests := []struct {
		message string
		want    error
	}{
		{"You have already reviewed this product", fault.ErrDuplicateRejected},
		{"Error: You have already reviewed this product.", fault.ErrDuplicateRejected},
		{"Invalid input for the field 'Rating'", fault.ErrValidationRejected},
		{"Invalid input for the field 'Text'", fault.ErrValidationRejected},
		{"Thanks for your review", nil},
	}
	for _, tt := range tests {
		err := ClassifyRejection(tt.message)
		if tt.want == nil {
			assert.NoError(t, err, tt.message)
			continue
		}
		assert.True(t, errors.Is(err, tt.want), "%q -> %v", tt.message, err)
	}
	assert.False(t, errors.Is(ClassifyRejection(MsgMissingRating), fault.ErrDuplicateRejected))
}

func TestUniqueComment(t *testing.T) {
	a := UniqueComment("Fresh and tasty")
	b := UniqueComment("Fresh and tasty")
	assert.NotEqual(t, a, b)
	assert.Regexp(t, regexp.MustCompile(`^Fresh and tasty \[[0-9a-f]{8}\]$`), a)
	assert.Regexp(t, regexp.MustCompile(`^grocerycheck [0-9a-f]{8}$`), UniqueComment(""))
}

func TestRemoveOutcome_String(t *testing.T) {
	assert.Equal(t, "removed", Removed.String())
	assert.Equal(t, "not_present", NotPresent.String())
}

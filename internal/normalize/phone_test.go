package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhone_ValidFormatted(t *testing.T) {
	r := Phone("+1 (555) 123-4567")
	assert.True(t, r.Valid)
	assert.Equal(t, "+1(555)123-4567", r.Clean)
	assert.Empty(t, r.SuggestedFix)
}

func TestPhone_Bare10DigitSuggestsCountryCode(t *testing.T) {
	r := Phone("555123456") // 9 digits, too short
	assert.False(t, r.Valid)
	assert.Equal(t, "+1555123456", r.SuggestedFix)

	r = Phone("555.123.4567") // dots break the shape
	assert.False(t, r.Valid)
	assert.Equal(t, "+15551234567", r.SuggestedFix)
}

func TestPhone_11DigitLeadingOne(t *testing.T) {
	r := Phone("1555123456x") // 'x' breaks the shape, 10 digits... not 11
	assert.False(t, r.Valid)

	r = Phone("1 555 123 4567 ext") // shape broken by letters
	assert.False(t, r.Valid)
	assert.Equal(t, "+15551234567", r.SuggestedFix)
}

func TestPhone_FixIsIdempotent(t *testing.T) {
	r := Phone("555.123.4567")
	assert.False(t, r.Valid)

	fixed := Phone(r.SuggestedFix)
	assert.True(t, fixed.Valid, "suggested fix must re-validate")
	assert.Empty(t, fixed.SuggestedFix)
	// No duplicated prefix on the fixed value.
	assert.Equal(t, "+15551234567", r.SuggestedFix)
}

func TestPhone_CleanStripsWhitespaceOnly(t *testing.T) {
	r := Phone("555-123-4567")
	assert.True(t, r.Valid)
	assert.Equal(t, "555-123-4567", r.Clean, "separators stay in the dedup key")

	r = Phone(" 555 123 4567 ")
	assert.Equal(t, "5551234567", r.Clean)
}

func TestPhone_SameCanonicalKey(t *testing.T) {
	// "5551234567" and "555-123-4567" must NOT share a key (Clean keeps
	// separators); whitespace variants must.
	a := Phone("555 123 4567")
	b := Phone("5551234567")
	assert.Equal(t, a.Clean, b.Clean)
}

func TestPhone_EmptyAndGarbage(t *testing.T) {
	r := Phone("")
	assert.False(t, r.Valid)
	assert.Empty(t, r.SuggestedFix, "nothing to repair")

	r = Phone("call me maybe")
	assert.False(t, r.Valid)
	assert.Empty(t, r.SuggestedFix)
}

func TestPhone_TooFewDigits(t *testing.T) {
	r := Phone("555-1234")
	assert.False(t, r.Valid, "matches the shape but under 10 digits")
	assert.Empty(t, r.SuggestedFix, "a fix that cannot validate is withheld")
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "15551234567", Digits("+1 (555) 123-4567"))
	assert.Equal(t, "", Digits("abc"))
}

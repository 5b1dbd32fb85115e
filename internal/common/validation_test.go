package common

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorCollectsEveryFailure(t *testing.T) {
	err := NewValidator().
		Field("name", " ", Required).
		Field("id", "nope", UUID).
		Field("base", "ftp://example.com", URL).
		Field("max", 9, IntBetween(1, 5)).
		Field("timeout", time.Duration(0), PositiveDuration).
		Field("file", "abcdef", MaxLength(3)).
		Error()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	for _, field := range []string{"name", "id", "base", "max", "timeout", "file"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestValidatorPasses(t *testing.T) {
	v := NewValidator().
		Field("name", "report.pdf", Required, MaxLength(255)).
		Field("id", uuid.NewString(), UUID).
		Field("base", "https://openrouter.ai/api/v1", URL).
		Field("max", 5, IntBetween(1, 5)).
		Field("timeout", time.Second, PositiveDuration)

	assert.False(t, v.HasErrors())
	assert.NoError(t, v.Error())
}

func TestMaxLengthCountsRunes(t *testing.T) {
	assert.Nil(t, MaxLength(3)("name", "äöü"))
	assert.NotNil(t, MaxLength(2)("name", "äöü"))
}

func TestConfigValidate(t *testing.T) {
	cfg := LoadConfig()
	require.NoError(t, cfg.Validate())

	cfg.Provider.MaxCandidates = 0
	cfg.Provider.BaseURL = "not a url"
	err := cfg.Validate()
	assert.Equal(t, CodeConfig, ErrorCode(err))
	assert.ErrorIs(t, err, ErrValidation)
}

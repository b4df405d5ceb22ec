package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runBody struct {
	LeadCount *int `json:"lead_count,omitempty" validate:"omitempty,gt=0"`
}

func TestFieldErrorsUseJSONNames(t *testing.T) {
	zero := 0
	err := New().Struct(runBody{LeadCount: &zero})
	require.Error(t, err)

	assert.Equal(t, map[string]string{"lead_count": "gt=0"}, FieldErrors(err))
}

func TestFieldErrorsIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, FieldErrors(errors.New("boom")))
	assert.NoError(t, New().Struct(runBody{}))
}

package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRequired(t *testing.T) {
	v := NewValidator()

	type req struct {
		JobURL string `json:"jobUrl" validate:"required,url"`
	}

	assert.Error(t, v.Validate(req{}))
	assert.NoError(t, v.Validate(req{JobURL: "https://jobs.acme.com/p"}))
}

func TestValidateURL(t *testing.T) {
	v := NewValidator()

	type req struct {
		JobURL string `validate:"url"`
	}

	assert.NoError(t, v.Validate(req{JobURL: "https://jobs.acme.com/p"}))
	assert.NoError(t, v.Validate(req{JobURL: "http://jobs.acme.com/p"}))
	assert.NoError(t, v.Validate(req{})) // optional unless required
	assert.Error(t, v.Validate(req{JobURL: "ftp://jobs.acme.com/p"}))
	assert.Error(t, v.Validate(req{JobURL: "jobs.acme.com/p"}))
}

func TestValidateMinMax(t *testing.T) {
	v := NewValidator()

	type req struct {
		Name string `validate:"min=3,max=10"`
	}

	assert.NoError(t, v.Validate(req{Name: "abc"}))
	assert.NoError(t, v.Validate(req{})) // empty skips min
	assert.Error(t, v.Validate(req{Name: "ab"}))
	assert.Error(t, v.Validate(req{Name: strings.Repeat("a", 11)}))
}

func TestValidatePointer(t *testing.T) {
	v := NewValidator()

	type req struct {
		Name string `validate:"required"`
	}

	assert.NoError(t, v.Validate(&req{Name: "x"}))
	assert.Error(t, v.Validate(&req{}))
}

func TestValidateErrorNamesField(t *testing.T) {
	v := NewValidator()

	type req struct {
		Company string `validate:"required"`
	}

	err := v.Validate(req{})
	assert.ErrorContains(t, err, "Company")
}

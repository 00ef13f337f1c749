package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title string `json:"title" validate:"required"`
	Year  string `json:"year" validate:"required"`
	Votes int    `json:"votes" validate:"min=0"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(sample{Title: "Black Panther", Year: "2018", Votes: 10}))
	assert.NoError(t, Struct(sample{Title: "Sacred Games", Year: "2018-2019"}))
}

func TestStruct_Invalid(t *testing.T) {
	err := Struct(sample{Votes: -1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))

	var verr *Error
	require.True(t, errors.As(err, &verr))

	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Tag
	}
	assert.Equal(t, map[string]string{
		"title": "required",
		"year":  "required",
		"votes": "min",
	}, fields)
	assert.Contains(t, err.Error(), "title is required")
	assert.Contains(t, err.Error(), "votes must be at least 0")
}

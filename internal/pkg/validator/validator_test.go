package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Score int      `validate:"gte=1,lte=5"`
	Links []string `validate:"max=2,dive,url"`
}

func TestValidate(t *testing.T) {
	assert.Nil(t, Validate(sample{Score: 3, Links: []string{"https://a.example/x.jpg"}}))

	errs := Validate(sample{Score: 9, Links: []string{"nope"}})
	assert.Equal(t, "lte", errs["sample.Score"])
	assert.Equal(t, "url", errs["sample.Links[0]"])
}

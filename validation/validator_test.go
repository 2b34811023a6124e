package validation

import (
	"encoding/json"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
)

type signup struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Lat   string `form:"lat" binding:"omitempty,latitude"`
}

func TestToDetailsUsesTagNames(t *testing.T) {
	Init()

	err := binding.Validator.ValidateStruct(&signup{Email: "nope", Lat: "123"})
	details := ToDetails(err)

	assert.Equal(t, map[string]string{
		"name":  "is required",
		"email": "must be a valid email",
		"lat":   "must be a valid latitude",
	}, details)
}

func TestToDetailsInvalidJSON(t *testing.T) {
	var v signup
	err := json.Unmarshal([]byte(`{"name":`), &v)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))
	assert.Nil(t, ToDetails(nil))
}

package validation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type item struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

type request struct {
	Email string `json:"email" validate:"required,email"`
	Items []item `json:"items" validate:"required,min=1,dive"`
}

func TestFromBindError_JSONKeys(t *testing.T) {
	req := request{Email: "nope", Items: []item{{ProductID: "p1", Quantity: 1}, {Quantity: 0}}}
	err := validator.New().Struct(req)

	got := FromBindError(err, &req)
	assert.Equal(t, "Must be a valid email address.", got["email"])
	assert.Equal(t, "This field is required.", got["items[1].product_id"])
	assert.Equal(t, "Must be greater than or equal to 1.", got["items[1].quantity"])
}

func TestFromBindError_TypeAndSyntax(t *testing.T) {
	var req request
	err := json.Unmarshal([]byte(`{"email": 5}`), &req)
	assert.Equal(t, FieldErrors{"email": "Has the wrong type."}, FromBindError(err, &req))

	assert.Equal(t, FieldErrors{"_": "Request body is not valid JSON."}, FromBindError(errors.New("EOF"), &req))
}

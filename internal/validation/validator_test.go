package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/streamgateapp/streamgate/internal/errors"
)

type sendRequest struct {
	Token string     `json:"token" validate:"required"`
	Event *sendEvent `json:"event,omitempty"`
}

type sendEvent struct {
	Name string  `json:"name,omitempty"`
	Data *string `json:"data" validate:"required"`
}

func TestValidate_Valid(t *testing.T) {
	v := New()

	data := "hi"
	req := sendRequest{
		Token: "tok-1",
		Event: &sendEvent{Name: "m", Data: &data},
	}

	assert.NoError(t, v.Validate(req))
}

func TestValidate_MissingRequired(t *testing.T) {
	v := New()

	err := v.Validate(sendRequest{})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)

	// Field errors are keyed by JSON tag name, not Go field name.
	details, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["token"])
}

func TestValidate_RequiredPointerAllowsEmptyString(t *testing.T) {
	v := New()

	// A present-but-empty data payload is legal; required on the pointer
	// only rejects a missing field.
	empty := ""
	req := sendRequest{
		Token: "tok-1",
		Event: &sendEvent{Data: &empty},
	}

	assert.NoError(t, v.Validate(req))
}

func TestValidate_NilEventSkipsNested(t *testing.T) {
	v := New()

	req := sendRequest{Token: "tok-1"}
	assert.NoError(t, v.Validate(req))
}

func TestValidate_MissingNestedData(t *testing.T) {
	v := New()

	req := sendRequest{
		Token: "tok-1",
		Event: &sendEvent{Name: "m"},
	}

	err := v.Validate(req)
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)

	details, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "data")
}

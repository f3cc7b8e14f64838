package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode(t *testing.T) {
	assert.Equal(t, "", Code(nil))
	assert.Equal(t, EInternal, Code(errors.New("boom")))
	assert.Equal(t, EInvalid, Code(Invalid("op", "bad")))

	wrapped := fmt.Errorf("outer: %w", NotFound("store.Get", "tenant not found"))
	assert.Equal(t, ENotFound, Code(wrapped))
}

func TestError_Message(t *testing.T) {
	assert.Equal(t, "signup: subdomain is required", Invalid("signup", "subdomain is required").Error())
	assert.Equal(t, "provision: boom", Internal("provision", errors.New("boom")).Error())
	assert.Equal(t, "<not found>", (&Error{Code: ENotFound}).Error())

	e := &Error{Code: EInternal, Msg: "insert tenant", Err: errors.New("conn reset")}
	assert.Equal(t, "insert tenant: conn reset", e.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("cause")
	err := fmt.Errorf("wrap: %w", Internal("op", cause))
	assert.ErrorIs(t, err, cause)

	e, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, "op", e.Op)
}

package validation

import (
	"errors"
	"testing"

	"ride-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupBody struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,handle,max=40"`
	Password  string `json:"password" validate:"required,password"`
	FirstName string `json:"first_name" validate:"required,personname"`
}

func TestStruct_Valid(t *testing.T) {
	err := Struct(signupBody{Email: "ana@example.com", Username: "ana_r", Password: "s3cret!pass", FirstName: "Ana María"})
	assert.NoError(t, err)
}

func TestStruct_ReportsJSONFieldName(t *testing.T) {
	err := Struct(signupBody{Email: "ana@example.com", Password: "s3cret!pass", FirstName: "Ana"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Contains(t, err.Error(), "username is required")
}

func TestStruct_CustomTags(t *testing.T) {
	err := Struct(signupBody{Email: "ana@example.com", Username: "ana r", Password: "s3cret!pass", FirstName: "Ana"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username may only contain")

	err = Struct(signupBody{Email: "ana@example.com", Username: "ana", Password: "password", FirstName: "Ana"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Password must have")

	err = Struct(signupBody{Email: "ana@example.com", Username: "ana", Password: "s3cret!pass", FirstName: "Ana1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first_name contains invalid characters")
}

func TestIsValidPassword(t *testing.T) {
	assert.True(t, IsValidPassword("abc123!?"))
	assert.False(t, IsValidPassword("abc12!"))
	assert.False(t, IsValidPassword("abcdefgh1"))
	assert.False(t, IsValidPassword("12345678!"))
}

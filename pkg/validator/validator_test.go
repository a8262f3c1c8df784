package validator

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slotRequest struct {
	Date      string `json:"date" binding:"required,isodate" validate:"required,isodate"`
	StartTime string `json:"startTime" validate:"required,hhmm"`
	EndTime   string `json:"endTime" validate:"required,hhmm"`
}

type signupRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,signup_role"`
}

func newValidate(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	require.NoError(t, Register(v))
	return v
}

func TestCustomTags(t *testing.T) {
	v := newValidate(t)

	assert.NoError(t, v.Struct(slotRequest{Date: "2026-10-20", StartTime: "09:00", EndTime: "09:30"}))

	err := v.Struct(slotRequest{Date: "20-10-2026", StartTime: "09:00", EndTime: "09:30"})
	assert.Equal(t, "date must be a date in YYYY-MM-DD format", Describe(err))

	err = v.Struct(slotRequest{Date: "2026-10-20", StartTime: "9am", EndTime: "09:30"})
	assert.Equal(t, "startTime must be a time in HH:MM format", Describe(err))

	err = v.Struct(signupRequest{Email: "a@b.co", Role: "ADMIN"})
	assert.Equal(t, "role must be DOCTOR or PATIENT", Describe(err))

	err = v.Struct(signupRequest{Role: "PATIENT"})
	assert.Equal(t, "email is required", Describe(err))
}

func TestDescribeDecodeErrors(t *testing.T) {
	var dst signupRequest

	err := json.Unmarshal([]byte("{"), &dst)
	assert.Contains(t, []string{"request body is not valid JSON", "invalid request"}, Describe(err))

	err = json.Unmarshal([]byte(`{"email": 42}`), &dst)
	assert.Equal(t, "email has the wrong type", Describe(err))
}

func TestRegisterWithGin(t *testing.T) {
	assert.NoError(t, RegisterWithGin())
	assert.NoError(t, RegisterWithGin())
}

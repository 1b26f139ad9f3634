package strcase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToLowerSnake(t *testing.T) {
	tests := map[string]string{
		"":              "",
		"Name":          "name",
		"PhoneNumber":   "phone_number",
		"OTP":           "otp",
		"OTPCode":       "otp_code",
		"FacilitatorID": "facilitator_id",
		"Section2Name":  "section2_name",
		"basicInfo":     "basic_info",
	}

	for in, want := range tests {
		assert.Equal(t, want, ToLowerSnake(in), in)
	}
}

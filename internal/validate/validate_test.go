package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword_ValidPasswordHasNoProblems(t *testing.T) {
	assert.Empty(t, Password("Str0ng!pass"))
}

func TestPassword_ReportsAllViolations(t *testing.T) {
	problems := Password("short")
	// Too short, no upper, no digit, no special: all reported at once.
	assert.Len(t, problems, 4)

	assert.Contains(t, Password("nouppercase1!"), "Password must contain at least one uppercase letter")
	assert.Contains(t, Password("NOLOWERCASE1!"), "Password must contain at least one lowercase letter")
	assert.Contains(t, Password("NoDigits!!"), "Password must contain at least one number")
	assert.Contains(t, Password("NoSpecial11"), "Password must contain at least one special character (@$!%*?&)")
}

func TestStruct_LoginForm(t *testing.T) {
	require.NoError(t, Struct(LoginForm{Email: "ada@example.edu", Password: "anything"}))

	err := Struct(LoginForm{Email: "not-an-email", Password: "pw"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email address is not valid")

	err = Struct(LoginForm{Email: "ada@example.edu"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Password is required")
}

func TestStruct_RegisterForm(t *testing.T) {
	valid := RegisterForm{
		Email:       "ada@example.edu",
		Password:    "Str0ng!pass",
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Role:        "student",
		AcceptTerms: true,
	}
	require.NoError(t, Struct(valid))

	weak := valid
	weak.Password = "weak"
	err := Struct(weak)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 8 characters")

	badRole := valid
	badRole.Role = "superuser"
	err = Struct(badRole)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of")

	noTerms := valid
	noTerms.AcceptTerms = false
	err = Struct(noTerms)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "terms must be accepted")
}

func TestStruct_ResetForm(t *testing.T) {
	require.NoError(t, Struct(ResetForm{Token: "tok", Password: "Str0ng!pass"}))

	err := Struct(ResetForm{Password: "Str0ng!pass"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Token is required")
}

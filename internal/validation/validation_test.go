package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Password string `json:"password" validate:"securepassword"`
	Email    string `json:"email" validate:"omitempty,email"`
	Note     string `validate:"max=5"`
}

func TestSecurePassword(t *testing.T) {
	tests := []struct {
		password string
		ok       bool
	}{
		{"Secret#123", true},
		{"Pässwört 1", true},
		{"Sh#1", false},
		{"secret#123", false},
		{"SECRET#123", false},
		{"Secret#abc", false},
		{"Secret1234", false},
	}
	for _, tt := range tests {
		err := Var("password", tt.password, "securepassword")
		if tt.ok {
			assert.NoError(t, err, tt.password)
			continue
		}
		var ferr *FieldError
		require.ErrorAs(t, err, &ferr, tt.password)
		assert.Equal(t, "password", ferr.Field)
		assert.Equal(t, "securepassword", ferr.Tag)
	}
}

func TestStruct_FirstFailureUsesJSONName(t *testing.T) {
	valid := signup{Username: "alice.b-c_1", Password: "Secret#123", Email: "a@b.io"}
	require.NoError(t, Struct(valid))

	cases := []struct {
		name  string
		in    signup
		field string
		tag   string
	}{
		{"missing username", signup{Password: "Secret#123"}, "username", "required"},
		{"short username", signup{Username: "al", Password: "Secret#123"}, "username", "min"},
		{"bad characters", signup{Username: "b o b", Password: "Secret#123"}, "username", "username"},
		{"long username", signup{Username: strings.Repeat("a", 51), Password: "Secret#123"}, "username", "max"},
		{"weak password", signup{Username: "alice", Password: "weak"}, "password", "securepassword"},
		{"bad email", signup{Username: "alice", Password: "Secret#123", Email: "nope"}, "email", "email"},
		{"untagged json falls back to lower case", signup{Username: "alice", Password: "Secret#123", Note: "toolong"}, "note", "max"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ferr *FieldError
			require.ErrorAs(t, Struct(tc.in), &ferr)
			assert.Equal(t, tc.field, ferr.Field)
			assert.Equal(t, tc.tag, ferr.Tag)
			assert.NotEmpty(t, ferr.Message())
		})
	}
}

func TestMaxCountsCharacters(t *testing.T) {
	assert.NoError(t, Var("message", strings.Repeat("ä", 5), "max=5"))
	assert.Error(t, Var("message", strings.Repeat("ä", 6), "max=5"))
}

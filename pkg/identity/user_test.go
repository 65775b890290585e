package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		user    User
		wantErr bool
	}{
		{"minimal", User{Sub: "1"}, false},
		{"full", User{Sub: "1", Email: "alice@example.com", Picture: "https://example.com/a.png"}, false},
		{"missing sub", User{Name: "alice"}, true},
		{"bad email", User{Sub: "1", Email: "alice"}, true},
		{"bad picture", User{Sub: "1", Picture: "not a url"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.user.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestUserDisplayName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "alice", User{Sub: "1", PreferredUsername: "alice", Name: "Alice A."}.DisplayName())
	assert.Equal(t, "Alice A.", User{Sub: "1", Name: "Alice A."}.DisplayName())
	assert.Equal(t, "1", User{Sub: "1"}.DisplayName())
}

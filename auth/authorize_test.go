package auth_test

import (
	"testing"

	"github.com/jrsteele09/go-control-plane/auth"
	"github.com/jrsteele09/go-control-plane/users"
	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name     string
		role     users.Role
		required []users.Role
		want     bool
	}{
		{"support against admin or support", users.RoleSupport, []users.Role{users.RoleAdmin, users.RoleSupport}, false},
		{"support against support", users.RoleSupport, []users.Role{users.RoleSupport}, true},
		{"admin against admin or support", users.RoleAdmin, []users.Role{users.RoleAdmin, users.RoleSupport}, true},
		{"owner against owner and admin", users.RoleOwner, []users.Role{users.RoleOwner, users.RoleAdmin}, true},
		{"admin against owner and admin", users.RoleAdmin, []users.Role{users.RoleOwner, users.RoleAdmin}, false},
		{"client against nothing", users.RoleClient, nil, true},
		{"owner against nothing", users.RoleOwner, []users.Role{}, true},
		{"unknown against nothing", users.Role("GUEST"), nil, true},
		{"unknown against client", users.Role("GUEST"), []users.Role{users.RoleClient}, false},
		{"owner against client", users.RoleOwner, []users.Role{users.RoleClient}, true},
		{"client against support", users.RoleClient, []users.Role{users.RoleSupport}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, auth.Authorize(tt.role, tt.required...))
		})
	}
}

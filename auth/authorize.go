package auth

import "github.com/jrsteele09/go-control-plane/users"

// Authorize reports whether role may act where required roles are listed.
// The check compares against the highest listed role, so requiring ADMIN and
// SUPPORT admits only ADMIN and OWNER. An empty list admits everyone.
func Authorize(role users.Role, required ...users.Role) bool {
	needed := 0
	for _, r := range required {
		if l := r.Level(); l > needed {
			needed = l
		}
	}
	return role.Level() >= needed
}

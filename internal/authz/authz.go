package authz

import "errors"

// ErrForbidden is returned when a caller is not allowed to act on a
// resource. Resource existence is checked before permissions, so a
// caller probing someone else's account learns it exists but nothing
// more.
var ErrForbidden = errors.New("caller is not allowed to access this resource")

// Caller identifies an authenticated request principal. It carries only
// what permission checks need; handlers resolve it from the verified
// bearer token, never from request parameters.
type Caller struct {
	UserID string
	Role   string
}

// IsElevated reports whether the caller holds the elevated role and may
// act on resources owned by other users.
func (c Caller) IsElevated() bool {
	return c.Role == "admin"
}

// CanAccess returns nil if the caller may act on a resource owned by
// ownerID. Ownership and elevation are the only two grants; there is no
// per-resource ACL.
func CanAccess(ownerID string, caller Caller) error {
	if caller.UserID == ownerID || caller.IsElevated() {
		return nil
	}
	return ErrForbidden
}

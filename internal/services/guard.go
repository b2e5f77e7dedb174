package services

// Identity is the caller resolved from a session token. The zero value is
// an unauthenticated caller.
type Identity struct {
	UserID string
}

// Authenticated reports whether the identity carries a verified user
func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

// Decision is the outcome of an ownership check
type Decision int

const (
	Deny Decision = iota
	Allow
)

// Authorize allows the caller to mutate a resource only when it owns it
func Authorize(resourceOwnerID string, caller Identity) Decision {
	if caller.Authenticated() && resourceOwnerID != "" && caller.UserID == resourceOwnerID {
		return Allow
	}
	return Deny
}

func requireOwner(resourceOwnerID string, caller Identity) error {
	if Authorize(resourceOwnerID, caller) != Allow {
		return forbidden()
	}
	return nil
}

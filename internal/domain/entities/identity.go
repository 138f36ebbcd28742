package entities

// Identity is the authenticated caller as supplied by the external auth
// collaborator. The zero value is the anonymous caller.
type Identity struct {
	UserID string `json:"user_id"`
}

// Anonymous is the identity of an unauthenticated caller.
var Anonymous = Identity{}

// NewIdentity returns the identity for the given account key.
func NewIdentity(userID string) Identity {
	return Identity{UserID: userID}
}

// IsAnonymous reports whether the caller is unauthenticated.
func (i Identity) IsAnonymous() bool {
	return i.UserID == ""
}

// Is reports whether the caller is the account with the given key.
// Anonymous callers never match.
func (i Identity) Is(userID string) bool {
	return !i.IsAnonymous() && i.UserID == userID
}

package services

// Identity is the authenticated caller, resolved by the external auth
// middleware before a request reaches the services.
type Identity struct {
	UserID uint
	Role   string
}

func (i Identity) IsAdmin() bool {
	return i.Role == "admin"
}

package domain

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleClient Role = "CLIENT"
)

// Caller is the authenticated identity an operation runs on behalf of.
type Caller struct {
	UserID int64
	Role   Role
}

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// CanAccess reports whether the caller may read or act on a record owned by
// ownerID.
func (c Caller) CanAccess(ownerID int64) bool {
	return c.IsAdmin() || c.UserID == ownerID
}

package entities

type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

func (r Role) CanWrite() bool {
	return r == RoleAdmin
}

// AdminCredential is one configured panel account. The secret doubles as
// the bearer token.
type AdminCredential struct {
	Login  string
	Role   Role
	Secret string
}

type AdminIdentity struct {
	Login string `json:"login"`
	Role  Role   `json:"role"`
}

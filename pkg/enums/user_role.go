package enums

// UserRole is the platform-level role carried in access tokens.
type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleAdmin    UserRole = "admin"
)

var userRoles = newSet("user role", UserRoleCustomer, UserRoleAdmin)

func (r UserRole) String() string { return string(r) }

func (r UserRole) IsValid() bool { return userRoles.has(r) }

func ParseUserRole(value string) (UserRole, error) { return userRoles.parse(value) }

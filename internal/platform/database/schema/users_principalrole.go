package schema

// UserPrincipalRoleTable represents the 'users.principal_role' link table
type UserPrincipalRoleTable struct {
	Table       string
	PrincipalID string
	RoleID      string
}

// UserPrincipalRole is the schema definition for users.principal_role
var UserPrincipalRole = UserPrincipalRoleTable{
	Table:       "users.principal_role",
	PrincipalID: "principalid",
	RoleID:      "roleid",
}

// Columns returns all standard column names
func (t UserPrincipalRoleTable) Columns() []string {
	return []string{t.PrincipalID, t.RoleID}
}

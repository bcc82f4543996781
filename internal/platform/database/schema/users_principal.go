package schema

// UserPrincipalTable represents the 'users.principal' table
type UserPrincipalTable struct {
	Table        string
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    string
}

// UserPrincipal is the schema definition for users.principal
var UserPrincipal = UserPrincipalTable{
	Table:        "users.principal",
	ID:           "id",
	Username:     "username",
	Email:        "email",
	PasswordHash: "passwordhash",
	CreatedAt:    "createdat",
}

// Columns returns all standard column names
func (t UserPrincipalTable) Columns() []string {
	return []string{t.ID, t.Username, t.Email, t.PasswordHash, t.CreatedAt}
}

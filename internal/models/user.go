package models

// Roles carried in access tokens.
const (
	RoleRequester = "requester" // may only request a boost and read state
	RoleOperator  = "operator"  // may also change boost parameters
)

type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // don’t expose hash
	Role         string `json:"role"`
}

package domain

// User is a placeholder account record. The dashboard is single-user and no
// flow reads or writes users yet.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
}

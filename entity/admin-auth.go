package entity

// AdminAuth is the identity carried by an admin session token.
type AdminAuth struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Name     string    `json:"name"`
	Role     AdminRole `json:"role"`
}

type LoginResult struct {
	Token string `json:"token"`
	Admin *Admin `json:"admin"`
}

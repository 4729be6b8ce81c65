package model

// RegisterParams is the input of a registration.
type RegisterParams struct {
	Email    string
	Password string
	Name     *string
}

// AuthResult is returned after a successful registration or login.
type AuthResult struct {
	User  PublicUser `json:"user"`
	Token string     `json:"token"`
}

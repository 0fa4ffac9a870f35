package api

// AuthUser is the user part of the auth context.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"`
}

// AuthStateResponse is the auth context as seen by the caller.
type AuthStateResponse struct {
	User            *AuthUser `json:"user"`
	IsAuthenticated bool      `json:"isAuthenticated"`
	Ready           bool      `json:"ready"`
}

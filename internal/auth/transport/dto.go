package transport

// SessionTokens is what a successful login or refresh hands back to the
// SPA. The refresh token never appears in a response body; it travels in
// an HttpOnly cookie only.
type SessionTokens struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"-"`
}

// MeResponse describes the authenticated vendor as seen by the frontend.
type MeResponse struct {
	Email   string   `json:"email"`
	Roles   []string `json:"roles"`
	IsAdmin bool     `json:"is_admin"`
}

package authclient

// RegistrationRequest represents a new account registration
type RegistrationRequest struct {
	Username           string  `json:"username" yaml:"username"`
	Email              string  `json:"email" yaml:"email"`
	Password           string  `json:"password" yaml:"password"`
	FullName           string  `json:"fullName" yaml:"fullName"`
	RegistrationNumber string  `json:"registrationNumber" yaml:"registrationNumber"`
	Area               *string `json:"area,omitempty" yaml:"area,omitempty"`
}

// LoginRequest represents a login within an organization.
// Login may be a username or an email address.
type LoginRequest struct {
	Login          string `json:"login" yaml:"login"`
	Password       string `json:"password" yaml:"password"`
	OrganizationID string `json:"organizationId" yaml:"organizationId"`
}

// RefreshRequest is the body sent to the refresh endpoint
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" yaml:"refreshToken"`
}

// LogoutRequest is the body sent to the logout endpoint
type LogoutRequest struct {
	UserID string `json:"userId" yaml:"userId"`
}

// UserSummary is the user embedded in an AuthResult
type UserSummary struct {
	ID               string `json:"id" yaml:"id"`
	Username         string `json:"username" yaml:"username"`
	Email            string `json:"email" yaml:"email"`
	FullName         string `json:"fullName" yaml:"fullName"`
	OrganizationID   string `json:"organizationId" yaml:"organizationId"`
	OrganizationName string `json:"organizationName" yaml:"organizationName"`
}

// AuthResult is the token bundle returned by register, login and refresh.
// ExpiresIn is in seconds.
type AuthResult struct {
	AccessToken  string      `json:"accessToken" yaml:"accessToken"`
	RefreshToken string      `json:"refreshToken" yaml:"refreshToken"`
	TokenType    string      `json:"tokenType" yaml:"tokenType"`
	ExpiresIn    int         `json:"expiresIn" yaml:"expiresIn"`
	User         UserSummary `json:"user" yaml:"user"`
}

// String returns a pointer to s, for optional fields such as Area
func String(s string) *string {
	return &s
}

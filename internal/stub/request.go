package stub

import "github.com/jrjohn/arcana-auth-client/pkg/authclient"

// registerRequest is the validated body of POST /auth/register
type registerRequest struct {
	Username           string  `json:"username" binding:"required"`
	Email              string  `json:"email" binding:"required,email"`
	Password           string  `json:"password" binding:"required,max=72"`
	FullName           string  `json:"fullName" binding:"required"`
	RegistrationNumber string  `json:"registrationNumber" binding:"required"`
	Area               *string `json:"area,omitempty"`
}

func (r *registerRequest) toRegistration() *authclient.RegistrationRequest {
	return &authclient.RegistrationRequest{
		Username:           r.Username,
		Email:              r.Email,
		Password:           r.Password,
		FullName:           r.FullName,
		RegistrationNumber: r.RegistrationNumber,
		Area:               r.Area,
	}
}

// loginRequest is the validated body of POST /auth/login
type loginRequest struct {
	Login          string `json:"login" binding:"required"`
	Password       string `json:"password" binding:"required"`
	OrganizationID string `json:"organizationId" binding:"required"`
}

func (r *loginRequest) toLogin() *authclient.LoginRequest {
	return &authclient.LoginRequest{
		Login:          r.Login,
		Password:       r.Password,
		OrganizationID: r.OrganizationID,
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type logoutRequest struct {
	UserID string `json:"userId" binding:"required"`
}

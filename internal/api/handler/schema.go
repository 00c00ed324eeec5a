package handler

import "github.com/webgate/authportal/internal/core/domain"

// errorResponse is the JSON error envelope, used when the client asks for JSON.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type registerRequest struct {
	Username      string `json:"username"             form:"username"             validate:"required,max=64"`
	Email         string `json:"email"                form:"email"                validate:"required,email,max=254"`
	Password      string `json:"password"             form:"password"             validate:"required,max=72"`
	CaptchaToken  string `json:"captchaToken"         form:"captchaToken"`
	LegacyCaptcha string `json:"g-recaptcha-response" form:"g-recaptcha-response"`
}

type loginRequest struct {
	Email         string `json:"email"                form:"email"                validate:"required"`
	Password      string `json:"password"             form:"password"             validate:"required"`
	CaptchaToken  string `json:"captchaToken"         form:"captchaToken"`
	LegacyCaptcha string `json:"g-recaptcha-response" form:"g-recaptcha-response"`
}

type contactRequest struct {
	Name          string `json:"name"                 form:"name"                 validate:"required,max=200"`
	Email         string `json:"email"                form:"email"                validate:"required,email,max=254"`
	Message       string `json:"message"              form:"message"              validate:"required,max=5000"`
	CaptchaToken  string `json:"captchaToken"         form:"captchaToken"`
	LegacyCaptcha string `json:"g-recaptcha-response" form:"g-recaptcha-response"`
}

type messageResponse struct {
	Message string           `json:"message"`
	User    *domain.Identity `json:"user,omitempty"`
}

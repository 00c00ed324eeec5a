package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/webgate/authportal/internal/core/domain"
	"github.com/webgate/authportal/internal/core/ports"
	"github.com/webgate/authportal/internal/pkg/metrics"
)

// ContactHandler handles contact-form submissions from signed-in users.
type ContactHandler struct {
	contactService ports.ContactService
}

func NewContactHandler(contactService ports.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// Submit handles POST /contact.
//
// @Summary      Send a contact message
// @Tags         contact
// @Accept       x-www-form-urlencoded,json
// @Produce      plain,json
// @Param        name          formData  string  true  "Sender name"
// @Param        email         formData  string  true  "Sender email"
// @Param        message       formData  string  true  "Message"
// @Param        captchaToken  formData  string  true  "Captcha token"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /contact [post]
func (h *ContactHandler) Submit(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req contactRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	req.CaptchaToken = captchaToken(req.CaptchaToken, req.LegacyCaptcha)
	if req.CaptchaToken == "" {
		metrics.ContactMessagesTotal.WithLabelValues(domain.Reason(domain.ErrCaptchaMissing)).Inc()
		return domain.ErrCaptchaMissing
	}
	if err := c.Validate(&req); err != nil {
		metrics.ContactMessagesTotal.WithLabelValues(domain.Reason(domain.ErrInvalidInput)).Inc()
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	_, err = h.contactService.Submit(c.Request().Context(), ports.ContactInput{
		Name:         req.Name,
		Email:        req.Email,
		Message:      req.Message,
		CaptchaToken: req.CaptchaToken,
		RemoteIP:     c.RealIP(),
		Sender:       identity,
	})
	metrics.ContactMessagesTotal.WithLabelValues(domain.Reason(err)).Inc()
	if err != nil {
		return err
	}

	if WantsJSON(c) {
		return c.JSON(http.StatusOK, messageResponse{Message: "OK"})
	}
	return c.String(http.StatusOK, "OK")
}

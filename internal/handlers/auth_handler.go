package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"daybook/internal/models"
	"daybook/internal/services"
	"daybook/internal/utils"
)

type AuthHandler struct {
	userService   services.UserService
	otpService    services.OTPService
	googleService services.GoogleService
}

func NewAuthHandler(userService services.UserService, otpService services.OTPService, googleService services.GoogleService) *AuthHandler {
	return &AuthHandler{
		userService:   userService,
		otpService:    otpService,
		googleService: googleService,
	}
}

// @Summary      Request a registration OTP
// @Description  Emails a 6-digit verification code to the address; any previous code for it is invalidated
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      models.RequestOTPRequest  true  "Target email"
// @Success      200      {object}  map[string]string
// @Failure      400      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /auth/request-otp [post]
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req models.RequestOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	if err := h.otpService.RequestCode(req.Email); err != nil {
		switch {
		case errors.Is(err, services.ErrEmailAlreadyVerified):
			c.JSON(http.StatusBadRequest, gin.H{"error": "email is already registered"})
		case errors.Is(err, services.ErrEmailDeliveryFailed):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send verification email"})
		default:
			log.Printf("[auth][request-otp] failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue verification code"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Verification code sent"})
}

// @Summary      Complete registration
// @Description  Verifies the OTP, creates the account and returns a session token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      models.RegisterRequest  true  "Email, OTP and password"
// @Success      200      {object}  models.RegisterResponse
// @Failure      400      {object}  map[string]string
// @Router       /auth/verify-register [post]
func (h *AuthHandler) VerifyRegister(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email, otp and password are required"})
		return
	}

	user, token, err := h.userService.Register(req.Email, req.OTP, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidOrExpiredOTP) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired code"})
			return
		}
		log.Printf("[auth][verify-register] failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "registration failed"})
		return
	}

	c.JSON(http.StatusOK, models.RegisterResponse{ID: user.ID, Email: user.Email, Token: token})
}

// @Summary      Password login
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Credentials"
// @Success      200    {object}  models.TokenResponse
// @Failure      400    {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	token, err := h.userService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email or password"})
			return
		}
		log.Printf("[auth][login] failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, models.TokenResponse{Token: token})
}

// @Summary      Start the Google OAuth flow
// @Description  Redirects the browser to the Google consent screen
// @Tags         Auth
// @Success      302
// @Router       /auth/google [get]
func (h *AuthHandler) GoogleRedirect(c *gin.Context) {
	state, err := utils.NewStateToken(16)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start sign-in"})
		return
	}
	c.Redirect(http.StatusFound, h.googleService.AuthURL(state))
}

// @Summary      Exchange a Google authorization code
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      models.GoogleCallbackRequest  true  "Authorization code"
// @Success      200      {object}  models.TokenResponse
// @Failure      400      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /auth/google-callback [post]
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	var req models.GoogleCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	identity, err := h.googleService.ExchangeCode(c.Request.Context(), req.Code)
	if err != nil {
		h.googleError(c, "google-callback", err)
		return
	}
	h.finishGoogle(c, "google-callback", identity)
}

// @Summary      Sign in with a Google ID token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      models.GoogleSignInRequest  true  "ID token from the client SDK"
// @Success      200      {object}  models.TokenResponse
// @Failure      400      {object}  map[string]string
// @Router       /auth/google-signin [post]
func (h *AuthHandler) GoogleSignIn(c *gin.Context) {
	var req models.GoogleSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tokenId is required"})
		return
	}

	identity, err := h.googleService.VerifyIDToken(c.Request.Context(), req.TokenID)
	if err != nil {
		h.googleError(c, "google-signin", err)
		return
	}
	h.finishGoogle(c, "google-signin", identity)
}

func (h *AuthHandler) finishGoogle(c *gin.Context, op string, identity *services.GoogleIdentity) {
	token, err := h.userService.GoogleSignIn(identity)
	if err != nil {
		h.googleError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, models.TokenResponse{Token: token})
}

func (h *AuthHandler) googleError(c *gin.Context, op string, err error) {
	if errors.Is(err, services.ErrInvalidExternalAssertion) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid Google sign-in"})
		return
	}
	log.Printf("[auth][%s] provider failure: %v", op, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Google sign-in unavailable"})
}

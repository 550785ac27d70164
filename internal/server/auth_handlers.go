package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/campushire/campushire/internal/auth"
	"github.com/campushire/campushire/internal/identity"
	"github.com/campushire/campushire/internal/models"
)

const (
	maxIDCardSize = 5 << 20

	msgInvalidCredentials = "Invalid email or password"
	msgBlocked            = "Your account has been blocked"
	msgPendingVerify      = "Registration successful. Your account is pending verification."
)

var idCardExtensions = []string{".png", ".jpg", ".jpeg", ".pdf"}

// SetupRequest represents the first-run setup request
type SetupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the data payload of a successful login or recruiter registration
type LoginResponse struct {
	Token string         `json:"token"`
	User  *identity.User `json:"user"`
}

// @Summary First-run setup
// @Description Creates the first admin user (only works if no admin exists)
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SetupRequest true "Setup request"
// @Success 201 {object} LoginResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /setup [post]
func (s *Server) setupFirstAdmin(c *gin.Context) {
	var req SetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Name, a valid email and a password of at least 6 characters are required")
		return
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("role = ?", identity.RoleAdmin).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count admins")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	if count > 0 {
		respondError(c, http.StatusConflict, "Setup already completed")
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		respondError(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	user := &models.User{
		Email:        strings.ToLower(req.Email),
		PasswordHash: passwordHash,
		Name:         req.Name,
		Role:         identity.RoleAdmin,
		IsVerified:   true,
	}
	if err := s.db.Create(user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create admin user")
		respondError(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("First admin user created")

	s.respondWithSession(c, http.StatusCreated, user)
}

// @Summary Login
// @Description Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /login [post]
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusUnauthorized, msgInvalidCredentials)
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		respondError(c, http.StatusUnauthorized, msgInvalidCredentials)
		return
	}

	if user.IsBlocked {
		s.logger.Info().Str("user_id", user.ID).Msg("Blocked user attempted login")
		respondError(c, http.StatusForbidden, msgBlocked)
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User logged in")

	s.respondWithSession(c, http.StatusOK, &user)
}

// @Summary Register
// @Description Create a student, alumni or recruiter account. Students and alumni upload their ID card as bracuIdCard and wait for verification; recruiters receive a session immediately.
// @Tags auth
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} LoginResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /register [post]
func (s *Server) register(c *gin.Context) {
	reg := identity.Registration{
		Name:       strings.TrimSpace(c.PostForm("name")),
		Email:      strings.ToLower(strings.TrimSpace(c.PostForm("email"))),
		Password:   c.PostForm("password"),
		Role:       identity.Role(strings.ToLower(c.PostForm("role"))),
		Department: c.PostForm("department"),
		Batch:      c.PostForm("batch"),
		Company:    c.PostForm("company"),
		JobTitle:   c.PostForm("jobTitle"),
	}

	if err := s.validator.Struct(&reg); err != nil {
		respondError(c, http.StatusBadRequest, identity.ValidationMessage(err))
		return
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", reg.Email).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check email")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	if count > 0 {
		respondError(c, http.StatusConflict, "Email already registered")
		return
	}

	user := &models.User{
		BaseModel: models.BaseModel{ID: ulid.Make().String()},
		Email:     reg.Email,
		Name:      reg.Name,
		Role:      reg.Role,
	}

	if reg.Role.IsCampusMember() {
		user.Department = reg.Department
		user.Batch = reg.Batch

		path, status, msg := s.saveIDCard(c, user.ID)
		if status != 0 {
			respondError(c, status, msg)
			return
		}
		user.IDCardPath = path
	} else {
		user.Company = reg.Company
		user.JobTitle = reg.JobTitle
		user.IsVerified = true
	}

	passwordHash, err := auth.HashPassword(reg.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		s.discardIDCard(user.IDCardPath)
		respondError(c, http.StatusInternalServerError, "Failed to create user")
		return
	}
	user.PasswordHash = passwordHash

	if err := s.db.Create(user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create user")
		s.discardIDCard(user.IDCardPath)
		respondError(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("User registered")

	if user.Role == identity.RoleRecruiter {
		s.respondWithSession(c, http.StatusCreated, user)
		return
	}
	respondMessage(c, http.StatusCreated, msgPendingVerify)
}

// saveIDCard stores the bracuIdCard upload under the upload directory. A
// non-zero status means the upload was rejected.
func (s *Server) saveIDCard(c *gin.Context, userID string) (string, int, string) {
	file, err := c.FormFile("bracuIdCard")
	if err != nil {
		return "", http.StatusBadRequest, "ID card is required"
	}
	if file.Size > maxIDCardSize {
		return "", http.StatusBadRequest, "ID card must be 5MB or smaller"
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !slices.Contains(idCardExtensions, ext) {
		return "", http.StatusBadRequest, "ID card must be a PNG, JPEG or PDF file"
	}

	path := filepath.Join(s.config.HTTP.UploadDir, userID+ext)
	if err := c.SaveUploadedFile(file, path); err != nil {
		s.logger.Error().Err(err).Msg("Failed to save ID card")
		return "", http.StatusInternalServerError, "Failed to save ID card"
	}
	return path, 0, ""
}

func (s *Server) discardIDCard(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn().Err(err).Str("path", path).Msg("Failed to remove ID card")
	}
}

// respondWithSession issues a token for user and answers {token, user}
func (s *Server) respondWithSession(c *gin.Context, status int, user *models.User) {
	token, err := s.tokens.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		respondError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	respondData(c, status, LoginResponse{
		Token: token,
		User:  user.Identity(),
	})
}

// @Summary Get current user
// @Description Get information about the currently authenticated user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} identity.User
// @Failure 401 {object} map[string]interface{}
// @Router /me [get]
func (s *Server) getCurrentUser(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var user models.User
	if err := models.FindByID(s.db, sessionData.UserID, &user); err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to find user")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondData(c, http.StatusOK, gin.H{"user": user.Identity()})
}

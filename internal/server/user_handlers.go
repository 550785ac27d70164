package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"github.com/campushire/campushire/internal/identity"
	"github.com/campushire/campushire/internal/models"
	"github.com/campushire/campushire/internal/tasks"
)

// BlockRequest sets or clears the blocked flag
type BlockRequest struct {
	Blocked *bool `json:"blocked" binding:"required"`
}

// @Summary List users
// @Description List all users, optionally filtered by role or verification state (admin only)
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param role query string false "Role filter"
// @Param pending query bool false "Only unverified students and alumni"
// @Success 200 {array} identity.User
// @Failure 401 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /admin/users [get]
func (s *Server) listUsers(c *gin.Context) {
	query := s.db.Order("created_at DESC")

	if roleParam := c.Query("role"); roleParam != "" {
		role, err := identity.ParseRole(roleParam)
		if err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		query = query.Where("role = ?", role)
	}
	if c.Query("pending") == "true" {
		query = query.Where("is_verified = ? AND role IN ?", false, []identity.Role{identity.RoleStudent, identity.RoleAlumni})
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list users")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	result := make([]*identity.User, len(users))
	for i := range users {
		result[i] = users[i].Identity()
	}

	respondData(c, http.StatusOK, result)
}

// @Summary Verify user
// @Description Mark a student or alumni account as verified (admin only)
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} identity.User
// @Failure 404 {object} map[string]interface{}
// @Router /admin/users/{id}/verify [patch]
func (s *Server) verifyUser(c *gin.Context) {
	user, ok := s.findUserParam(c)
	if !ok {
		return
	}

	if err := s.db.Model(user).Update("is_verified", true).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to verify user")
		respondError(c, http.StatusInternalServerError, "Failed to verify user")
		return
	}
	user.IsVerified = true

	sessionData, _ := GetSessionData(c)
	s.logger.Info().Str("user_id", user.ID).Str("verified_by", sessionData.UserID).Msg("User verified")

	respondData(c, http.StatusOK, user.Identity())
}

// @Summary Block or unblock user
// @Description Blocked users cannot log in (admin only, cannot block self)
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body BlockRequest true "Block request"
// @Success 200 {object} identity.User
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /admin/users/{id}/block [patch]
func (s *Server) setUserBlocked(c *gin.Context) {
	var req BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "blocked is required")
		return
	}

	sessionData, _ := GetSessionData(c)
	if c.Param("id") == sessionData.UserID {
		respondError(c, http.StatusBadRequest, "Cannot block yourself")
		return
	}

	user, ok := s.findUserParam(c)
	if !ok {
		return
	}

	if err := s.db.Model(user).Update("is_blocked", *req.Blocked).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update user")
		respondError(c, http.StatusInternalServerError, "Failed to update user")
		return
	}
	user.IsBlocked = *req.Blocked

	s.logger.Info().
		Str("user_id", user.ID).
		Bool("blocked", *req.Blocked).
		Str("changed_by", sessionData.UserID).
		Msg("User block state changed")

	respondData(c, http.StatusOK, user.Identity())
}

// @Summary Delete user
// @Description Delete a user (admin only, cannot delete self)
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 204
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /admin/users/{id} [delete]
func (s *Server) deleteUser(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	// Prevent deleting self
	if c.Param("id") == sessionData.UserID {
		respondError(c, http.StatusBadRequest, "Cannot delete yourself")
		return
	}

	user, ok := s.findUserParam(c)
	if !ok {
		return
	}

	if err := s.db.Delete(user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete user")
		respondError(c, http.StatusInternalServerError, "Failed to delete user")
		return
	}
	s.removeIDCard(c.Request.Context(), user)

	s.logger.Info().
		Str("user_id", user.ID).
		Str("deleted_by", sessionData.UserID).
		Msg("User deleted")

	c.Status(http.StatusNoContent)
}

// findUserParam loads the user named by the :id path parameter, answering
// 404 or 500 itself when it cannot
func (s *Server) findUserParam(c *gin.Context) (*models.User, bool) {
	var user models.User
	if err := models.FindByID(s.db, c.Param("id"), &user); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "User not found")
			return nil, false
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	return &user, true
}

// removeIDCard hands the deleted user's upload to the worker, or deletes it
// here when there is no queue or enqueueing fails
func (s *Server) removeIDCard(ctx context.Context, user *models.User) {
	if user.IDCardPath == "" {
		return
	}

	if s.queue != nil {
		task, err := tasks.NewIDCardCleanupTask(user.ID, user.IDCardPath)
		if err == nil {
			_, err = s.queue.EnqueueContext(ctx, task, asynq.MaxRetry(5))
		}
		if err == nil {
			return
		}
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to enqueue ID card cleanup, removing inline")
	}

	s.discardIDCard(user.IDCardPath)
}

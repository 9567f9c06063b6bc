package profiles

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jaider012/easy-reals/api"
	"github.com/jaider012/easy-reals/auth"
	"github.com/jaider012/easy-reals/models"
)

type Handler struct {
	DB *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db}
}

type CreateProfileRequest struct {
	Email               string `json:"email" binding:"required,email"`
	FullName            string `json:"full_name" binding:"required"`
	BusinessName        string `json:"business_name"`
	BusinessDescription string `json:"business_description"`
	Phone               string `json:"phone"`
}

type UpdateProfileRequest struct {
	FullName            *string `json:"full_name"`
	BusinessName        *string `json:"business_name"`
	BusinessDescription *string `json:"business_description"`
	Phone               *string `json:"phone"`
	Picture             *string `json:"picture"`
}

// ProfileResponse is the detail view: the profile plus a computed
// subscription summary.
type ProfileResponse struct {
	models.User
	Subscription SubscriptionSummary `json:"subscription"`
}

type SubscriptionSummary struct {
	Status     string `json:"status"`
	Subscribed bool   `json:"subscribed"`
}

// CreateProfile creates the caller's profile row. The id comes from the
// identity token; a duplicate email is a conflict.
func (h *Handler) CreateProfile(c *gin.Context) {
	userID := auth.CallerID(c)
	var req CreateProfileRequest
	if !api.BindJSON(c, &req) {
		return
	}

	var existing models.User
	err := h.DB.Where("id = ? OR email = ?", userID, req.Email).First(&existing).Error
	if err == nil {
		api.Fail(c, api.Conflict("a profile with this email already exists"))
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		api.Fail(c, api.StoreFailure(err))
		return
	}

	user := models.User{
		ID:                  userID,
		Email:               req.Email,
		FullName:            req.FullName,
		BusinessName:        req.BusinessName,
		BusinessDescription: req.BusinessDescription,
		Phone:               req.Phone,
		IsActive:            true,
		SubscriptionStatus:  models.SubscriptionFree,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			api.Fail(c, api.Conflict("a profile with this email already exists"))
			return
		}
		api.Fail(c, api.StoreFailure(err))
		return
	}

	api.Created(c, toResponse(user))
}

// GetProfile returns the caller's own profile.
func (h *Handler) GetProfile(c *gin.Context) {
	userID := auth.CallerID(c)

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.Fail(c, api.NotFound("profile"))
			return
		}
		api.Fail(c, api.StoreFailure(err))
		return
	}

	api.OK(c, toResponse(user))
}

// UpdateProfile applies a partial update to the caller's profile.
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID := auth.CallerID(c)
	var req UpdateProfileRequest
	if !api.BindJSON(c, &req) {
		return
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.Fail(c, api.NotFound("profile"))
			return
		}
		api.Fail(c, api.StoreFailure(err))
		return
	}

	updates := map[string]interface{}{}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.BusinessName != nil {
		updates["business_name"] = *req.BusinessName
	}
	if req.BusinessDescription != nil {
		updates["business_description"] = *req.BusinessDescription
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Picture != nil {
		updates["picture"] = *req.Picture
	}

	if len(updates) > 0 {
		if err := h.DB.Model(&user).Updates(updates).Error; err != nil {
			api.Fail(c, api.StoreFailure(err))
			return
		}
	}

	api.OK(c, toResponse(user))
}

// DeactivateProfile soft-deactivates the caller's profile. Historical
// series and videos stay attached.
func (h *Handler) DeactivateProfile(c *gin.Context) {
	userID := auth.CallerID(c)

	res := h.DB.Model(&models.User{}).Where("id = ?", userID).Update("is_active", false)
	if res.Error != nil {
		api.Fail(c, api.StoreFailure(res.Error))
		return
	}
	if res.RowsAffected == 0 {
		// target vanished between check and execution
		api.Fail(c, api.NotFound("profile"))
		return
	}

	api.OK(c, gin.H{"deactivated": true})
}

func toResponse(u models.User) ProfileResponse {
	return ProfileResponse{
		User: u,
		Subscription: SubscriptionSummary{
			Status:     u.SubscriptionStatus,
			Subscribed: u.IsSubscribed(),
		},
	}
}

package http

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/prayerbook/internal/entities"
)

// UserCategoryQueries defines user category operations used by UserCategoriesController.
type UserCategoryQueries interface {
	ListUserCategories(ctx context.Context) ([]entities.UserCategory, error)
	CreateUserCategory(ctx context.Context, title, color string) (*entities.UserCategory, error)
	DeleteUserCategory(ctx context.Context, id int64) error
	AddPrayerToUserCategory(ctx context.Context, categoryID, prayerID int64) error
	RemovePrayerFromUserCategory(ctx context.Context, categoryID, prayerID int64) error
	GetUserCategoryPrayers(ctx context.Context, id int64, lang string) ([]entities.PrayerWithTranslation, error)
}

type UserCategoriesController struct {
	queries UserCategoryQueries
}

func NewUserCategoriesController(queries UserCategoryQueries) *UserCategoriesController {
	return &UserCategoriesController{queries: queries}
}

// CreateUserCategoryRequest is the request body for creating a user category.
type CreateUserCategoryRequest struct {
	Title string `json:"title" form:"title"`
	Color string `json:"color" form:"color"`
}

// GET /api/user-categories
func (uc *UserCategoriesController) List(c *gin.Context) {
	categories, err := uc.queries.ListUserCategories(c.Request.Context())
	if err != nil {
		respondError(c, err, "list user categories")
		return
	}
	respondList(c, categories)
}

// Create validates and stores a user category; duplicates get 409.
// POST /api/user-categories
func (uc *UserCategoriesController) Create(c *gin.Context) {
	var req CreateUserCategoryRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	category, err := uc.queries.CreateUserCategory(c.Request.Context(), req.Title, req.Color)
	if err != nil {
		respondError(c, err, "create user category")
		return
	}
	respondCreated(c, category)
}

// DELETE /api/user-categories/:id
func (uc *UserCategoriesController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := uc.queries.DeleteUserCategory(c.Request.Context(), id); err != nil {
		respondError(c, err, "delete user category")
		return
	}
	respondSuccess(c, "user category deleted", nil)
}

// GET /api/user-categories/:id/prayers?lang=
func (uc *UserCategoriesController) Prayers(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	prayers, err := uc.queries.GetUserCategoryPrayers(c.Request.Context(), id, c.Query("lang"))
	if err != nil {
		respondError(c, err, "list user category prayers")
		return
	}
	respondList(c, prayers)
}

// POST /api/user-categories/:id/prayers/:prayerId
func (uc *UserCategoriesController) AddPrayer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	prayerID, ok := parseIDParam(c, "prayerId")
	if !ok {
		return
	}
	if err := uc.queries.AddPrayerToUserCategory(c.Request.Context(), id, prayerID); err != nil {
		respondError(c, err, "add prayer to user category")
		return
	}
	respondSuccess(c, "prayer added", gin.H{"user_category_id": id, "prayer_id": prayerID})
}

// DELETE /api/user-categories/:id/prayers/:prayerId
func (uc *UserCategoriesController) RemovePrayer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	prayerID, ok := parseIDParam(c, "prayerId")
	if !ok {
		return
	}
	if err := uc.queries.RemovePrayerFromUserCategory(c.Request.Context(), id, prayerID); err != nil {
		respondError(c, err, "remove prayer from user category")
		return
	}
	respondSuccess(c, "prayer removed", gin.H{"user_category_id": id, "prayer_id": prayerID})
}

package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/prayerbook/internal/entities"
)

// CategoryQueries defines the category tree reads used by CategoriesController.
type CategoryQueries interface {
	GetRootCategories(ctx context.Context) ([]entities.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*entities.Category, error)
	GetCategoryByTitle(ctx context.Context, title string) (*entities.Category, error)
	GetChildCategories(ctx context.Context, parentID int64) ([]entities.Category, error)
	GetCategoryAndDescendantIDs(ctx context.Context, id int64) ([]int64, error)
	GetPrayersInCategory(ctx context.Context, categoryID int64, lang string) ([]entities.PrayerWithTranslation, error)
	GetPrayersInCategoryTree(ctx context.Context, categoryID int64, lang string) ([]entities.PrayerWithTranslation, error)
}

type CategoriesController struct {
	queries CategoryQueries
}

func NewCategoriesController(queries CategoryQueries) *CategoriesController {
	return &CategoriesController{queries: queries}
}

// ListRoots returns the top-level categories.
// GET /api/categories
func (cc *CategoriesController) ListRoots(c *gin.Context) {
	categories, err := cc.queries.GetRootCategories(c.Request.Context())
	if err != nil {
		respondError(c, err, "list root categories")
		return
	}
	respondList(c, categories)
}

// Lookup finds a category by title.
// GET /api/categories/lookup?title=
func (cc *CategoriesController) Lookup(c *gin.Context) {
	title := strings.TrimSpace(c.Query("title"))
	if title == "" {
		respondBadRequest(c, "title is required")
		return
	}
	category, err := cc.queries.GetCategoryByTitle(c.Request.Context(), title)
	if err != nil {
		respondError(c, err, "lookup category")
		return
	}
	c.JSON(http.StatusOK, category)
}

// GET /api/categories/:id
func (cc *CategoriesController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	category, err := cc.queries.GetCategoryByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "get category")
		return
	}
	c.JSON(http.StatusOK, category)
}

// GET /api/categories/:id/children
func (cc *CategoriesController) Children(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := cc.queries.GetCategoryByID(ctx, id); err != nil {
		respondError(c, err, "get category")
		return
	}
	children, err := cc.queries.GetChildCategories(ctx, id)
	if err != nil {
		respondError(c, err, "list child categories")
		return
	}
	respondList(c, children)
}

// Descendants returns the category id followed by every descendant id.
// GET /api/categories/:id/descendants
func (cc *CategoriesController) Descendants(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ids, err := cc.queries.GetCategoryAndDescendantIDs(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "resolve descendants")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "ids": ids})
}

// Prayers lists the category's prayers; with recursive=true the whole subtree.
// GET /api/categories/:id/prayers?lang=&recursive=
func (cc *CategoriesController) Prayers(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	lang := c.Query("lang")

	var (
		prayers []entities.PrayerWithTranslation
		err     error
	)
	if parseBoolQuery(c, "recursive") {
		prayers, err = cc.queries.GetPrayersInCategoryTree(c.Request.Context(), id, lang)
	} else {
		prayers, err = cc.queries.GetPrayersInCategory(c.Request.Context(), id, lang)
	}
	if err != nil {
		respondError(c, err, "list category prayers")
		return
	}
	respondList(c, prayers)
}

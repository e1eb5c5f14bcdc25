package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/prayerbook/internal/entities"
)

const maxLatestLimit = 100

// PrayerQueries defines the prayer reads used by PrayersController.
type PrayerQueries interface {
	GetPrayersByCategoryTitle(ctx context.Context, title, lang string) ([]entities.PrayerWithTranslation, error)
	SearchPrayers(ctx context.Context, term, lang string) ([]entities.PrayerWithTranslation, error)
	GetLatestPrayersRange(ctx context.Context, lang string, limit, offset int) ([]entities.PrayerWithTranslation, error)
	GetPrayer(ctx context.Context, id int64, lang string) (*entities.PrayerWithTranslation, error)
	GetLanguages(ctx context.Context) ([]entities.Language, error)
	PageSize() int
}

type PrayersController struct {
	queries PrayerQueries
}

func NewPrayersController(queries PrayerQueries) *PrayersController {
	return &PrayersController{queries: queries}
}

// ByCategory lists prayers of the titled category and its direct
// subcategories. An unknown title yields an empty list.
// GET /api/prayers/by-category?title=&lang=
func (pc *PrayersController) ByCategory(c *gin.Context) {
	title := strings.TrimSpace(c.Query("title"))
	if title == "" {
		respondBadRequest(c, "title is required")
		return
	}
	prayers, err := pc.queries.GetPrayersByCategoryTitle(c.Request.Context(), title, c.Query("lang"))
	if err != nil {
		respondError(c, err, "list prayers by category")
		return
	}
	respondList(c, prayers)
}

// GET /api/prayers/search?q=&lang=
func (pc *PrayersController) Search(c *gin.Context) {
	prayers, err := pc.queries.SearchPrayers(c.Request.Context(), c.Query("q"), c.Query("lang"))
	if err != nil {
		respondError(c, err, "search prayers")
		return
	}
	respondList(c, prayers)
}

// Latest pages through prayers, newest first.
// GET /api/prayers/latest?lang=&limit=&offset=
func (pc *PrayersController) Latest(c *gin.Context) {
	limit, ok := parseIntQuery(c, "limit", pc.queries.PageSize())
	if !ok {
		return
	}
	if limit == 0 || limit > maxLatestLimit {
		limit = pc.queries.PageSize()
	}
	offset, ok := parseIntQuery(c, "offset", 0)
	if !ok {
		return
	}

	prayers, err := pc.queries.GetLatestPrayersRange(c.Request.Context(), c.Query("lang"), limit, offset)
	if err != nil {
		respondError(c, err, "list latest prayers")
		return
	}
	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    prayers,
		Limit:   limit,
		Offset:  offset,
		HasMore: len(prayers) == limit,
	})
}

// GET /api/prayers/:id?lang=
func (pc *PrayersController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	prayer, err := pc.queries.GetPrayer(c.Request.Context(), id, c.Query("lang"))
	if err != nil {
		respondError(c, err, "get prayer")
		return
	}
	c.JSON(http.StatusOK, prayer)
}

// GET /api/languages
func (pc *PrayersController) Languages(c *gin.Context) {
	languages, err := pc.queries.GetLanguages(c.Request.Context())
	if err != nil {
		respondError(c, err, "list languages")
		return
	}
	respondList(c, languages)
}

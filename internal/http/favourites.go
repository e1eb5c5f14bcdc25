package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/prayerbook/internal/entities"
)

// FavouritesQueries defines favourites operations used by FavouritesController.
type FavouritesQueries interface {
	GetFavoritePrayers(ctx context.Context, lang string) ([]entities.FavoritePrayer, error)
	AddFavorite(ctx context.Context, prayerID int64) (bool, error)
	RemoveFavorite(ctx context.Context, prayerID int64) (bool, error)
	ToggleFavorite(ctx context.Context, prayerID int64) (bool, error)
	IsFavorite(ctx context.Context, prayerID int64) (bool, error)
	GetFavoriteCount(ctx context.Context) (int64, error)
}

type FavouritesController struct {
	queries FavouritesQueries
}

func NewFavouritesController(queries FavouritesQueries) *FavouritesController {
	return &FavouritesController{queries: queries}
}

type favouriteState struct {
	PrayerID   int64 `json:"prayer_id"`
	IsFavorite bool  `json:"is_favorite"`
	Changed    bool  `json:"changed"`
}

// AddFavourite marks a prayer as favourite. Adding twice is not an error.
// POST /api/prayers/:id/favorite
func (fc *FavouritesController) AddFavourite(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	added, err := fc.queries.AddFavorite(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "add favourite")
		return
	}
	respondSuccess(c, "favourite added", favouriteState{PrayerID: id, IsFavorite: true, Changed: added})
}

// RemoveFavourite unmarks a prayer. Removing a non-favourite is not an error.
// DELETE /api/prayers/:id/favorite
func (fc *FavouritesController) RemoveFavourite(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	removed, err := fc.queries.RemoveFavorite(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "remove favourite")
		return
	}
	respondSuccess(c, "favourite removed", favouriteState{PrayerID: id, IsFavorite: false, Changed: removed})
}

// POST /api/prayers/:id/favorite/toggle
func (fc *FavouritesController) ToggleFavourite(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	state, err := fc.queries.ToggleFavorite(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "toggle favourite")
		return
	}
	respondSuccess(c, "favourite toggled", favouriteState{PrayerID: id, IsFavorite: state, Changed: true})
}

// GET /api/prayers/:id/favorite
func (fc *FavouritesController) IsFavourite(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	isFavorite, err := fc.queries.IsFavorite(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "check favourite")
		return
	}
	c.JSON(http.StatusOK, favouriteState{PrayerID: id, IsFavorite: isFavorite})
}

// ListFavourites returns all favourites with their best available translation.
// GET /api/favorites?lang=
func (fc *FavouritesController) ListFavourites(c *gin.Context) {
	favorites, err := fc.queries.GetFavoritePrayers(c.Request.Context(), c.Query("lang"))
	if err != nil {
		respondError(c, err, "list favourites")
		return
	}
	respondList(c, favorites)
}

// GET /api/favorites/count
func (fc *FavouritesController) GetFavouriteCount(c *gin.Context) {
	count, err := fc.queries.GetFavoriteCount(c.Request.Context())
	if err != nil {
		respondError(c, err, "count favourites")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

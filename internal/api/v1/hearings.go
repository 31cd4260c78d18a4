package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/civicvoice/hearing-go/internal/datastore"
)

// initHearingRoutes registers the hearing collection and per-hearing
// routes.
func (c *Controller) initHearingRoutes() {
	g := c.Group.Group("/hearing")
	g.GET("/", c.ListHearings)
	g.GET("/map/", c.HearingMap)
	g.GET("/:id/", c.GetHearing)
	g.GET("/:id/images/", c.ListHearingImages)
	g.POST("/:id/follow/", c.FollowHearing)
	g.POST("/:id/unfollow/", c.UnfollowHearing)

	c.Group.GET("/label/", c.ListLabels)
}

// ListHearings serves GET /v1/hearing/. Without parameters it returns
// the newest hearings first. ?next_closing=<RFC3339> narrows the list
// to the single hearing closing soonest after the given instant;
// ?limit=<n> caps the page size.
func (c *Controller) ListHearings(ctx echo.Context) error {
	filter := datastore.HearingFilter{Limit: defaultListLimit}

	if raw := ctx.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return c.HandleError(ctx, err, "Invalid limit parameter", http.StatusBadRequest)
		}
		filter.Limit = limit
	}
	if raw := ctx.QueryParam("next_closing"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.HandleError(ctx, err, "Invalid next_closing parameter", http.StatusBadRequest)
		}
		filter.NextClosing = &t
	}

	hearings, err := c.DS.ListHearings(ctx.Request().Context(), filter)
	if err != nil {
		return c.handleStoreError(ctx, err, "Failed to list hearings")
	}

	now := time.Now()
	items := make([]hearingListItem, 0, len(hearings))
	for _, h := range hearings {
		items = append(items, toHearingListItem(h, now))
	}
	return ctx.JSON(http.StatusOK, items)
}

// GetHearing serves GET /v1/hearing/:id/ with sections, comments,
// images and labels preloaded.
func (c *Controller) GetHearing(ctx echo.Context) error {
	hearing, err := c.DS.GetHearingDetail(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return c.handleStoreError(ctx, err, "Hearing not found")
	}
	followers, err := c.DS.ListFollowers(ctx.Request().Context(), hearing.ID)
	if err != nil {
		return c.handleStoreError(ctx, err, "Failed to load followers")
	}
	return ctx.JSON(http.StatusOK, toHearingDetail(hearing, len(followers), time.Now()))
}

// ListHearingImages serves GET /v1/hearing/:id/images/.
func (c *Controller) ListHearingImages(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	if _, err := c.DS.GetHearing(reqCtx, ctx.Param("id")); err != nil {
		return c.handleStoreError(ctx, err, "Hearing not found")
	}
	images, err := c.DS.ListHearingImages(reqCtx, ctx.Param("id"))
	if err != nil {
		return c.handleStoreError(ctx, err, "Failed to list images")
	}
	items := make([]imageItem, 0, len(images))
	for _, image := range images {
		items = append(items, toHearingImageItem(image))
	}
	return ctx.JSON(http.StatusOK, items)
}

// HearingMap serves GET /v1/hearing/map/: id, title and geojson of
// every geolocated hearing. The response is cached because the geojson
// payloads dominate response size and change rarely.
func (c *Controller) HearingMap(ctx echo.Context) error {
	const cacheKey = "hearing_map"
	if cached, found := c.mapCache.Get(cacheKey); found {
		return ctx.JSON(http.StatusOK, cached.([]mapItem))
	}

	hearings, err := c.DS.ListHearings(ctx.Request().Context(), datastore.HearingFilter{})
	if err != nil {
		return c.handleStoreError(ctx, err, "Failed to list hearings")
	}

	items := make([]mapItem, 0, len(hearings))
	for _, h := range hearings {
		if len(h.GeoJSON) == 0 {
			continue
		}
		items = append(items, mapItem{ID: h.ID, Title: h.Title, GeoJSON: h.GeoJSON})
	}
	c.mapCache.Set(cacheKey, items, mapCacheTTL)
	return ctx.JSON(http.StatusOK, items)
}

// ListLabels serves GET /v1/label/ alphabetically.
func (c *Controller) ListLabels(ctx echo.Context) error {
	labels, err := c.DS.ListLabels(ctx.Request().Context())
	if err != nil {
		return c.handleStoreError(ctx, err, "Failed to list labels")
	}
	names := make([]string, 0, len(labels))
	for _, label := range labels {
		names = append(names, label.Label)
	}
	return ctx.JSON(http.StatusOK, names)
}

// FollowHearing serves POST /v1/hearing/:id/follow/. Requires an
// authenticated user; following twice yields 304.
func (c *Controller) FollowHearing(ctx echo.Context) error {
	user := currentUser(ctx)
	if user == nil {
		return c.HandleError(ctx, nil, "Authentication required to follow", http.StatusForbidden)
	}
	result, err := c.DS.Follow(ctx.Request().Context(), ctx.Param("id"), user.ID)
	if err != nil {
		return c.handleStoreError(ctx, err, "Failed to follow hearing")
	}
	return c.respondToggle(ctx, "follow", result,
		"following", "", "already following")
}

// UnfollowHearing serves POST /v1/hearing/:id/unfollow/. Unfollowing a
// hearing the user never followed yields 304.
func (c *Controller) UnfollowHearing(ctx echo.Context) error {
	user := currentUser(ctx)
	if user == nil {
		return c.HandleError(ctx, nil, "Authentication required to unfollow", http.StatusForbidden)
	}
	result, err := c.DS.Unfollow(ctx.Request().Context(), ctx.Param("id"), user.ID)
	if err != nil {
		return c.handleStoreError(ctx, err, "Failed to unfollow hearing")
	}
	return c.respondToggle(ctx, "follow", result,
		"", "unfollowed", "not following")
}

package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/civicvoice/hearing-go/internal/datastore"
	"github.com/civicvoice/hearing-go/internal/datastore/entities"
)

// initSectionRoutes registers the per-hearing section routes.
func (c *Controller) initSectionRoutes() {
	g := c.Group.Group("/hearing/:id/sections")
	g.GET("/", c.ListSections)
	g.GET("/:sid/", c.GetSection)
	g.GET("/:sid/images/", c.ListSectionImages)
	g.GET("/:sid/comments/", c.ListSectionComments)
	g.POST("/:sid/comments/", c.CreateSectionComment)
	g.POST("/:sid/comments/:cid/vote/", c.VoteComment)
	g.POST("/:sid/comments/:cid/unvote/", c.UnvoteComment)
}

// ListSections serves GET /v1/hearing/:id/sections/ in ordering order.
func (c *Controller) ListSections(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	if _, err := c.DS.GetHearing(reqCtx, ctx.Param("id")); err != nil {
		return c.handleStoreError(ctx, err, "Hearing not found")
	}
	sections, err := c.DS.ListSections(reqCtx, ctx.Param("id"))
	if err != nil {
		return c.handleStoreError(ctx, err, "Failed to list sections")
	}
	items := make([]sectionItem, 0, len(sections))
	for _, section := range sections {
		items = append(items, toSectionItem(section))
	}
	return ctx.JSON(http.StatusOK, items)
}

// GetSection serves GET /v1/hearing/:id/sections/:sid/.
func (c *Controller) GetSection(ctx echo.Context) error {
	section, err := c.sectionOfHearing(ctx)
	if err != nil {
		return c.handleStoreError(ctx, err, "Section not found")
	}
	return ctx.JSON(http.StatusOK, toSectionItem(section))
}

// ListSectionImages serves GET /v1/hearing/:id/sections/:sid/images/.
func (c *Controller) ListSectionImages(ctx echo.Context) error {
	section, err := c.sectionOfHearing(ctx)
	if err != nil {
		return c.handleStoreError(ctx, err, "Section not found")
	}
	images, err := c.DS.ListSectionImages(ctx.Request().Context(), section.ID)
	if err != nil {
		return c.handleStoreError(ctx, err, "Failed to list images")
	}
	items := make([]imageItem, 0, len(images))
	for _, image := range images {
		items = append(items, toSectionImageItem(image))
	}
	return ctx.JSON(http.StatusOK, items)
}

// ListSectionComments serves GET
// /v1/hearing/:id/sections/:sid/comments/ in creation order.
func (c *Controller) ListSectionComments(ctx echo.Context) error {
	section, err := c.sectionOfHearing(ctx)
	if err != nil {
		return c.handleStoreError(ctx, err, "Section not found")
	}
	comments, err := c.DS.ListComments(ctx.Request().Context(), section.Parent())
	if err != nil {
		return c.handleStoreError(ctx, err, "Failed to list comments")
	}
	items := make([]commentItem, 0, len(comments))
	for _, comment := range comments {
		items = append(items, toCommentItem(comment))
	}
	return ctx.JSON(http.StatusOK, items)
}

// CreateSectionComment serves POST
// /v1/hearing/:id/sections/:sid/comments/. Commenting policy and the
// open window are checked against the owning hearing.
func (c *Controller) CreateSectionComment(ctx echo.Context) error {
	section, err := c.sectionOfHearing(ctx)
	if err != nil {
		return c.handleStoreError(ctx, err, "Section not found")
	}
	return c.createComment(ctx, ctx.Param("id"), section.Commenting, section.Parent())
}

// sectionOfHearing loads :sid and verifies it belongs to :id, so a
// valid section id cannot be addressed through the wrong hearing.
func (c *Controller) sectionOfHearing(ctx echo.Context) (*entities.Section, error) {
	section, err := c.DS.GetSection(ctx.Request().Context(), ctx.Param("sid"))
	if err != nil {
		return nil, err
	}
	if section.HearingID != ctx.Param("id") {
		return nil, datastore.ErrSectionNotFound
	}
	return section, nil
}

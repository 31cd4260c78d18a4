package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/civicvoice/hearing-go/internal/datastore"
	"github.com/civicvoice/hearing-go/internal/datastore/entities"
	"github.com/civicvoice/hearing-go/internal/errors"
)

// initCommentRoutes registers the hearing-level comment routes. The
// section-level comment routes live in initSectionRoutes and share the
// handlers below.
func (c *Controller) initCommentRoutes() {
	g := c.Group.Group("/hearing/:id/comments")
	g.GET("/", c.ListHearingComments)
	g.POST("/", c.CreateHearingComment)
	g.POST("/:cid/vote/", c.VoteComment)
	g.POST("/:cid/unvote/", c.UnvoteComment)
}

// ListHearingComments serves GET /v1/hearing/:id/comments/ in creation
// order. Only comments attached directly to the hearing are listed,
// section comments live under their section.
func (c *Controller) ListHearingComments(ctx echo.Context) error {
	hearing, err := c.DS.GetHearing(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return c.handleStoreError(ctx, err, "Hearing not found")
	}
	comments, err := c.DS.ListComments(ctx.Request().Context(), hearing.Parent())
	if err != nil {
		return c.handleStoreError(ctx, err, "Failed to list comments")
	}
	items := make([]commentItem, 0, len(comments))
	for _, comment := range comments {
		items = append(items, toCommentItem(comment))
	}
	return ctx.JSON(http.StatusOK, items)
}

// CreateHearingComment serves POST /v1/hearing/:id/comments/.
func (c *Controller) CreateHearingComment(ctx echo.Context) error {
	hearing, err := c.DS.GetHearing(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return c.handleStoreError(ctx, err, "Hearing not found")
	}
	return c.createComment(ctx, hearing.ID, hearing.Commenting, hearing.Parent())
}

// commentRequest is the comment creation body. Decoding is strict:
// unknown keys are rejected so typos like "conten" fail loudly instead
// of silently posting an empty comment.
type commentRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	AuthorName string `json:"author_name"`
}

// createComment applies the commenting policy of the commentable and
// the open window of the owning hearing, then persists the comment.
func (c *Controller) createComment(ctx echo.Context, hearingID string, policy entities.Commenting, parent entities.CommentParent) error {
	reqCtx := ctx.Request().Context()
	user := currentUser(ctx)

	switch policy {
	case entities.CommentingNone:
		return c.HandleError(ctx, nil, "Commenting is not allowed here", http.StatusForbidden)
	case entities.CommentingRegistered:
		if user == nil {
			return c.HandleError(ctx, nil, "Authentication required to comment", http.StatusForbidden)
		}
	}

	hearing, err := c.DS.GetHearing(reqCtx, hearingID)
	if err != nil {
		return c.handleStoreError(ctx, err, "Hearing not found")
	}
	if hearing.Closed(time.Now()) {
		return c.HandleError(ctx, nil, "Hearing is closed", http.StatusForbidden)
	}

	decoder := json.NewDecoder(ctx.Request().Body)
	decoder.DisallowUnknownFields()
	var req commentRequest
	if err := decoder.Decode(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid comment payload", http.StatusBadRequest)
	}
	if strings.TrimSpace(req.Content) == "" {
		return c.HandleError(ctx, nil, "Comment content must not be empty", http.StatusBadRequest)
	}

	comment := &entities.Comment{
		ModifiableBase: entities.ModifiableBase{Published: true},
		Title:          req.Title,
		Content:        req.Content,
		AuthorName:     req.AuthorName,
	}
	comment.SetParent(parent)
	if user != nil {
		comment.CreatedByID = &user.ID
	}

	if err := c.DS.CreateComment(reqCtx, comment); err != nil {
		return c.handleStoreError(ctx, err, "Failed to create comment")
	}
	return ctx.JSON(http.StatusCreated, toCommentItem(comment))
}

// VoteComment serves POST .../comments/:cid/vote/. Voting twice yields
// 304. Votes on hidden comments are rejected with 400, soft-deleted
// comments are indistinguishable from absent ones and yield 404.
func (c *Controller) VoteComment(ctx echo.Context) error {
	user := currentUser(ctx)
	if user == nil {
		return c.HandleError(ctx, nil, "Authentication required to vote", http.StatusForbidden)
	}
	comment, err := c.votableComment(ctx)
	if err != nil {
		return c.handleStoreError(ctx, err, "Cannot vote on this comment")
	}
	result, err := c.DS.Vote(ctx.Request().Context(), comment.ID, user.ID)
	if err != nil {
		return c.handleStoreError(ctx, err, "Failed to vote")
	}
	return c.respondToggle(ctx, "vote", result,
		"vote received", "", "already voted")
}

// UnvoteComment serves POST .../comments/:cid/unvote/. Removing a vote
// that was never cast yields 304.
func (c *Controller) UnvoteComment(ctx echo.Context) error {
	user := currentUser(ctx)
	if user == nil {
		return c.HandleError(ctx, nil, "Authentication required to unvote", http.StatusForbidden)
	}
	comment, err := c.votableComment(ctx)
	if err != nil {
		return c.handleStoreError(ctx, err, "Cannot vote on this comment")
	}
	result, err := c.DS.Unvote(ctx.Request().Context(), comment.ID, user.ID)
	if err != nil {
		return c.handleStoreError(ctx, err, "Failed to unvote")
	}
	return c.respondToggle(ctx, "vote", result,
		"", "vote withdrawn", "no vote to withdraw")
}

// votableComment loads :cid, scoped to the parent named in the route:
// a comment is only addressable under its own hearing or section, the
// same way any other URL yields 404. Hidden comments are rejected and
// soft-deleted ones are indistinguishable from absent.
func (c *Controller) votableComment(ctx echo.Context) (*entities.Comment, error) {
	parent := entities.HearingParent(ctx.Param("id"))
	if ctx.Param("sid") != "" {
		section, err := c.sectionOfHearing(ctx)
		if err != nil {
			return nil, err
		}
		parent = section.Parent()
	}

	comment, err := c.DS.GetComment(ctx.Request().Context(), ctx.Param("cid"))
	if err != nil {
		return nil, err
	}
	if comment.Parent() != parent {
		return nil, datastore.ErrCommentNotFound
	}
	if !comment.Published {
		return nil, errors.Newf("comment is hidden").
			Category(errors.CategoryValidation).
			Component("api").
			Build()
	}
	return comment, nil
}

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/civicvoice/hearing-go/internal/conf"
	"github.com/civicvoice/hearing-go/internal/datastore"
	"github.com/civicvoice/hearing-go/internal/datastore/entities"
	"github.com/civicvoice/hearing-go/internal/observability"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// go-cache janitors live until their cache is finalized.
		goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"),
	)
}

type testEnv struct {
	e  *echo.Echo
	ds *datastore.DataStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ds, err := datastore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ds.Close() })

	e := echo.New()
	New(e, ds, conf.DefaultSettings(), observability.NewMetrics())
	return &testEnv{e: e, ds: ds}
}

// request performs a JSON request against the in-process server. An
// empty token leaves the request anonymous.
func (env *testEnv) request(method, path, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Token "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) createHearing(t *testing.T, id string, commenting entities.Commenting) *entities.Hearing {
	t.Helper()
	now := time.Now().UTC()
	hearing := &entities.Hearing{
		ModifiableBase: entities.ModifiableBase{ID: id, Published: true},
		Commentable:    entities.Commentable{Commenting: commenting},
		OpenAt:         now.AddDate(0, 0, -1),
		CloseAt:        now.AddDate(0, 0, 30),
		Title:          "Hearing " + id,
	}
	require.NoError(t, env.ds.CreateHearing(context.Background(), hearing))
	return hearing
}

func (env *testEnv) createUser(t *testing.T, username string) *entities.User {
	t.Helper()
	user := &entities.User{Username: username, APIToken: "token-" + username}
	require.NoError(t, env.ds.CreateUser(context.Background(), user))
	return user
}

func (env *testEnv) createComment(t *testing.T, parent entities.CommentParent, published bool) *entities.Comment {
	t.Helper()
	comment := &entities.Comment{
		ModifiableBase: entities.ModifiableBase{Published: published},
		Content:        "a comment",
	}
	comment.SetParent(parent)
	require.NoError(t, env.ds.CreateComment(context.Background(), comment))
	return comment
}

func TestListHearings(t *testing.T) {
	env := newTestEnv(t)
	env.createHearing(t, "first", entities.CommentingOpen)
	env.createHearing(t, "second", entities.CommentingOpen)

	rec := env.request(http.MethodGet, "/v1/hearing/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "first")
	assert.Contains(t, rec.Body.String(), "second")

	rec = env.request(http.MethodGet, "/v1/hearing/?limit=bogus", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.request(http.MethodGet, "/v1/hearing/?next_closing=yesterday", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetHearingNotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := env.request(http.MethodGet, "/v1/hearing/no-such/", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFollowHearing(t *testing.T) {
	env := newTestEnv(t)
	hearing := env.createHearing(t, "follow-me", entities.CommentingOpen)
	user := env.createUser(t, "seuraaja")

	rec := env.request(http.MethodPost, "/v1/hearing/"+hearing.ID+"/follow/", "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code, "anonymous follow is rejected")

	rec = env.request(http.MethodPost, "/v1/hearing/"+hearing.ID+"/follow/", user.APIToken, "")
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = env.request(http.MethodPost, "/v1/hearing/"+hearing.ID+"/follow/", user.APIToken, "")
	assert.Equal(t, http.StatusNotModified, rec.Code, "second follow is a no-op")

	rec = env.request(http.MethodPost, "/v1/hearing/"+hearing.ID+"/unfollow/", user.APIToken, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.request(http.MethodPost, "/v1/hearing/"+hearing.ID+"/unfollow/", user.APIToken, "")
	assert.Equal(t, http.StatusNotModified, rec.Code)
}

func TestVoteComment(t *testing.T) {
	env := newTestEnv(t)
	hearing := env.createHearing(t, "vote-here", entities.CommentingOpen)
	comment := env.createComment(t, hearing.Parent(), true)
	user := env.createUser(t, "voter")

	base := "/v1/hearing/" + hearing.ID + "/comments/" + comment.ID

	rec := env.request(http.MethodPost, base+"/vote/", "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.request(http.MethodPost, base+"/vote/", user.APIToken, "")
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = env.request(http.MethodPost, base+"/vote/", user.APIToken, "")
	assert.Equal(t, http.StatusNotModified, rec.Code)

	rec = env.request(http.MethodPost, base+"/unvote/", user.APIToken, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.request(http.MethodPost, base+"/unvote/", user.APIToken, "")
	assert.Equal(t, http.StatusNotModified, rec.Code)
}

func TestVoteHiddenComment(t *testing.T) {
	env := newTestEnv(t)
	hearing := env.createHearing(t, "hidden-vote", entities.CommentingOpen)
	hidden := env.createComment(t, hearing.Parent(), false)
	user := env.createUser(t, "voter")

	rec := env.request(http.MethodPost,
		"/v1/hearing/"+hearing.ID+"/comments/"+hidden.ID+"/vote/", user.APIToken, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVoteDeletedComment(t *testing.T) {
	env := newTestEnv(t)
	hearing := env.createHearing(t, "deleted-vote", entities.CommentingOpen)
	comment := env.createComment(t, hearing.Parent(), true)
	user := env.createUser(t, "voter")
	require.NoError(t, env.ds.SoftDeleteComment(context.Background(), comment.ID))

	rec := env.request(http.MethodPost,
		"/v1/hearing/"+hearing.ID+"/comments/"+comment.ID+"/vote/", user.APIToken, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVoteCommentWrongParent(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createHearing(t, "owner-hearing", entities.CommentingOpen)
	other := env.createHearing(t, "other-hearing", entities.CommentingOpen)
	comment := env.createComment(t, owner.Parent(), true)
	user := env.createUser(t, "voter")

	// A comment is only addressable under its own hearing.
	rec := env.request(http.MethodPost,
		"/v1/hearing/"+other.ID+"/comments/"+comment.ID+"/vote/", user.APIToken, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	got, err := env.ds.GetComment(context.Background(), comment.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.NVotes, "no vote lands through the wrong hearing")

	// A section comment is not addressable through the hearing-level
	// route either.
	section := &entities.Section{
		ModifiableBase: entities.ModifiableBase{Published: true},
		Commentable:    entities.Commentable{Commenting: entities.CommentingOpen},
		HearingID:      owner.ID,
		Type:           entities.SectionTypeIntroduction,
	}
	require.NoError(t, env.ds.CreateSection(context.Background(), section))
	sectionComment := env.createComment(t, section.Parent(), true)

	rec = env.request(http.MethodPost,
		"/v1/hearing/"+owner.ID+"/comments/"+sectionComment.ID+"/vote/", user.APIToken, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.request(http.MethodPost,
		"/v1/hearing/"+owner.ID+"/sections/"+section.ID+"/comments/"+sectionComment.ID+"/vote/",
		user.APIToken, "")
	assert.Equal(t, http.StatusCreated, rec.Code, "the correctly scoped URL still works")

	rec = env.request(http.MethodPost,
		"/v1/hearing/"+other.ID+"/sections/"+section.ID+"/comments/"+sectionComment.ID+"/unvote/",
		user.APIToken, "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "the section must belong to the routed hearing")
}

func TestCreateComment(t *testing.T) {
	env := newTestEnv(t)
	hearing := env.createHearing(t, "open-hearing", entities.CommentingOpen)
	path := "/v1/hearing/" + hearing.ID + "/comments/"

	rec := env.request(http.MethodPost, path, "", `{"content": "anonymous opinion"}`)
	assert.Equal(t, http.StatusCreated, rec.Code, "open commenting allows anonymous comments")
	assert.Contains(t, rec.Body.String(), "anonymous opinion")

	rec = env.request(http.MethodPost, path, "", `{"content": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "empty content is rejected")

	rec = env.request(http.MethodPost, path, "", `{"content": "x", "conten": "typo"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown keys are rejected")

	rec = env.request(http.MethodPost, path, "", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateCommentPolicy(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "kirjautunut")

	registered := env.createHearing(t, "registered-only", entities.CommentingRegistered)
	path := "/v1/hearing/" + registered.ID + "/comments/"
	rec := env.request(http.MethodPost, path, "", `{"content": "hello"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code, "anonymous rejected under registered policy")
	rec = env.request(http.MethodPost, path, user.APIToken, `{"content": "hello"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	none := env.createHearing(t, "no-comments", entities.CommentingNone)
	rec = env.request(http.MethodPost, "/v1/hearing/"+none.ID+"/comments/", user.APIToken, `{"content": "hello"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateCommentClosedHearing(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now().UTC()
	hearing := &entities.Hearing{
		ModifiableBase: entities.ModifiableBase{ID: "closed-hearing", Published: true},
		Commentable:    entities.Commentable{Commenting: entities.CommentingOpen},
		OpenAt:         now.AddDate(0, 0, -60),
		CloseAt:        now.AddDate(0, 0, -30),
		Title:          "Closed hearing",
	}
	require.NoError(t, env.ds.CreateHearing(context.Background(), hearing))

	rec := env.request(http.MethodPost, "/v1/hearing/closed-hearing/comments/", "", `{"content": "too late"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSectionComments(t *testing.T) {
	env := newTestEnv(t)
	hearing := env.createHearing(t, "with-sections", entities.CommentingOpen)
	section := &entities.Section{
		ModifiableBase: entities.ModifiableBase{Published: true},
		Commentable:    entities.Commentable{Commenting: entities.CommentingOpen},
		HearingID:      hearing.ID,
		Type:           entities.SectionTypeIntroduction,
	}
	require.NoError(t, env.ds.CreateSection(context.Background(), section))

	path := "/v1/hearing/" + hearing.ID + "/sections/" + section.ID + "/comments/"
	rec := env.request(http.MethodPost, path, "", `{"content": "about this section"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = env.request(http.MethodGet, path, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "about this section")

	// A section cannot be addressed through a hearing it does not
	// belong to.
	other := env.createHearing(t, "other-hearing", entities.CommentingOpen)
	rec = env.request(http.MethodGet,
		"/v1/hearing/"+other.ID+"/sections/"+section.ID+"/", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownTokenRejected(t *testing.T) {
	env := newTestEnv(t)
	env.createHearing(t, "any", entities.CommentingOpen)
	rec := env.request(http.MethodGet, "/v1/hearing/", "bogus-token", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHearingMapOnlyGeolocated(t *testing.T) {
	env := newTestEnv(t)
	located := env.createHearing(t, "located", entities.CommentingOpen)
	located.GeoJSON = []byte(`{"type":"Point","coordinates":[24.9,60.2]}`)
	require.NoError(t, env.ds.SaveHearing(context.Background(), located))
	env.createHearing(t, "unlocated", entities.CommentingOpen)

	rec := env.request(http.MethodGet, "/v1/hearing/map/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "located")
	assert.NotContains(t, rec.Body.String(), "unlocated")
}

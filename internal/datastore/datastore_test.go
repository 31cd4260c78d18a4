package datastore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicvoice/hearing-go/internal/datastore/entities"
)

func newTestStore(t *testing.T) *DataStore {
	t.Helper()
	ds, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ds.Close() })
	return ds
}

func createTestHearing(t *testing.T, ds *DataStore, id string) *entities.Hearing {
	t.Helper()
	now := time.Now().UTC()
	hearing := &entities.Hearing{
		ModifiableBase: entities.ModifiableBase{ID: id, Published: true},
		Commentable:    entities.Commentable{Commenting: entities.CommentingOpen},
		OpenAt:         now.AddDate(0, 0, -1),
		CloseAt:        now.AddDate(0, 0, 30),
		Title:          "Hearing " + id,
	}
	require.NoError(t, ds.CreateHearing(context.Background(), hearing))
	return hearing
}

func createTestUser(t *testing.T, ds *DataStore, username string) *entities.User {
	t.Helper()
	user := &entities.User{Username: username, APIToken: "token-" + username}
	require.NoError(t, ds.CreateUser(context.Background(), user))
	return user
}

func createTestComment(t *testing.T, ds *DataStore, parent entities.CommentParent, content string) *entities.Comment {
	t.Helper()
	comment := &entities.Comment{
		ModifiableBase: entities.ModifiableBase{Published: true},
		Content:        content,
	}
	comment.SetParent(parent)
	require.NoError(t, ds.CreateComment(context.Background(), comment))
	return comment
}

func TestCreateSectionAppendsOrdering(t *testing.T) {
	ds := newTestStore(t)
	ctx := context.Background()
	hearing := createTestHearing(t, ds, "ordering-test")

	for i := 0; i < 3; i++ {
		section := &entities.Section{
			ModifiableBase: entities.ModifiableBase{Published: true},
			HearingID:      hearing.ID,
			Type:           entities.SectionTypePlain,
		}
		require.NoError(t, ds.CreateSection(ctx, section))
	}

	sections, err := ds.ListSections(ctx, hearing.ID)
	require.NoError(t, err)
	require.Len(t, sections, 3)
	for i, section := range sections {
		assert.Equal(t, i+1, section.Ordering)
	}
}

func TestCreateSectionRejectsInvalidType(t *testing.T) {
	ds := newTestStore(t)
	hearing := createTestHearing(t, ds, "bad-type")

	section := &entities.Section{
		ModifiableBase: entities.ModifiableBase{Published: true},
		HearingID:      hearing.ID,
		Type:           entities.SectionType("interpretive-dance"),
	}
	err := ds.CreateSection(context.Background(), section)
	assert.Error(t, err)
}

func TestCompactSectionOrdering(t *testing.T) {
	ds := newTestStore(t)
	ctx := context.Background()
	hearing := createTestHearing(t, ds, "compact-test")

	for _, ordering := range []int{3, 7, 1005} {
		section := &entities.Section{
			ModifiableBase: entities.ModifiableBase{Published: true},
			HearingID:      hearing.ID,
			Type:           entities.SectionTypePlain,
			Ordering:       ordering,
		}
		require.NoError(t, ds.CreateSection(ctx, section))
	}

	require.NoError(t, ds.CompactSectionOrdering(ctx, hearing.ID))

	sections, err := ds.ListSections(ctx, hearing.ID)
	require.NoError(t, err)
	require.Len(t, sections, 3)
	for i, section := range sections {
		assert.Equal(t, i+1, section.Ordering)
	}
}

func TestSoftDeleteHearing(t *testing.T) {
	ds := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"h1", "h2", "h3"} {
		createTestHearing(t, ds, id)
	}
	require.NoError(t, ds.SoftDeleteHearing(ctx, "h2"))

	visible, err := ds.ListHearings(ctx, HearingFilter{})
	require.NoError(t, err)
	deleted, err := ds.ListDeletedHearings(ctx)
	require.NoError(t, err)

	assert.Len(t, visible, 2)
	assert.Len(t, deleted, 1)
	assert.Equal(t, "h2", deleted[0].ID)

	_, err = ds.GetHearing(ctx, "h2")
	assert.ErrorIs(t, err, ErrHearingNotFound)

	err = ds.SoftDeleteHearing(ctx, "no-such-hearing")
	assert.ErrorIs(t, err, ErrHearingNotFound)
}

func TestCommentCountRecache(t *testing.T) {
	ds := newTestStore(t)
	ctx := context.Background()
	hearing := createTestHearing(t, ds, "comment-count")

	section := &entities.Section{
		ModifiableBase: entities.ModifiableBase{Published: true},
		HearingID:      hearing.ID,
		Type:           entities.SectionTypeIntroduction,
	}
	require.NoError(t, ds.CreateSection(ctx, section))

	var last *entities.Comment
	for i := 0; i < 3; i++ {
		last = createTestComment(t, ds, hearing.Parent(), "hearing comment")
	}
	createTestComment(t, ds, section.Parent(), "section comment")

	got, err := ds.GetHearing(ctx, hearing.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.NComments, "section comments must not count toward the hearing")

	gotSection, err := ds.GetSection(ctx, section.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, gotSection.NComments)

	require.NoError(t, ds.SoftDeleteComment(ctx, last.ID))
	got, err = ds.GetHearing(ctx, hearing.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.NComments)
}

func TestCreateCommentRequiresParent(t *testing.T) {
	ds := newTestStore(t)
	comment := &entities.Comment{
		ModifiableBase: entities.ModifiableBase{Published: true},
		Content:        "orphan",
	}
	assert.Error(t, ds.CreateComment(context.Background(), comment))
}

func TestCreateCommentDerivesAuthorName(t *testing.T) {
	ds := newTestStore(t)
	ctx := context.Background()
	hearing := createTestHearing(t, ds, "author-name")
	user := createTestUser(t, ds, "maija")

	comment := &entities.Comment{
		ModifiableBase: entities.ModifiableBase{Published: true, CreatedByID: &user.ID},
		Content:        "signed comment",
	}
	comment.SetParent(hearing.Parent())
	require.NoError(t, ds.CreateComment(ctx, comment))

	got, err := ds.GetComment(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, "maija", got.AuthorName)
}

func TestVoteCountLaw(t *testing.T) {
	ds := newTestStore(t)
	ctx := context.Background()
	hearing := createTestHearing(t, ds, "vote-law")

	comment := &entities.Comment{
		ModifiableBase: entities.ModifiableBase{Published: true},
		Content:        "imported comment",
		NVotes:         2,
		NLegacyVotes:   2,
	}
	comment.SetParent(hearing.Parent())
	require.NoError(t, ds.CreateComment(ctx, comment))

	user := createTestUser(t, ds, "voter")

	result, err := ds.Vote(ctx, comment.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, ToggleCreated, result)

	got, err := ds.GetComment(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.NVotes, "n_votes must equal voters + legacy votes")

	// Voting again changes nothing.
	result, err = ds.Vote(ctx, comment.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, ToggleNotModified, result)
	got, err = ds.GetComment(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.NVotes)

	result, err = ds.Unvote(ctx, comment.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, ToggleRemoved, result)
	got, err = ds.GetComment(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.NVotes, "legacy votes survive unvoting")

	result, err = ds.Unvote(ctx, comment.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, ToggleNotModified, result)
}

func TestFollowToggle(t *testing.T) {
	ds := newTestStore(t)
	ctx := context.Background()
	hearing := createTestHearing(t, ds, "follow-test")
	user := createTestUser(t, ds, "follower")

	result, err := ds.Follow(ctx, hearing.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, ToggleCreated, result)

	result, err = ds.Follow(ctx, hearing.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, ToggleNotModified, result)

	followers, err := ds.ListFollowers(ctx, hearing.ID)
	require.NoError(t, err)
	assert.Len(t, followers, 1)

	result, err = ds.Unfollow(ctx, hearing.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, ToggleRemoved, result)

	result, err = ds.Unfollow(ctx, hearing.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, ToggleNotModified, result)
}

func TestHardDeleteHearingProtected(t *testing.T) {
	ds := newTestStore(t)
	ctx := context.Background()
	hearing := createTestHearing(t, ds, "protected")

	section := &entities.Section{
		ModifiableBase: entities.ModifiableBase{Published: true},
		HearingID:      hearing.ID,
		Type:           entities.SectionTypeIntroduction,
	}
	require.NoError(t, ds.CreateSection(ctx, section))

	err := ds.HardDeleteHearing(ctx, hearing.ID)
	assert.ErrorIs(t, err, ErrHearingHasSections)

	empty := createTestHearing(t, ds, "empty")
	require.NoError(t, ds.HardDeleteHearing(ctx, empty.ID))
	_, err = ds.GetHearing(ctx, empty.ID)
	assert.ErrorIs(t, err, ErrHearingNotFound)
}

func TestListHearingsNextClosing(t *testing.T) {
	ds := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	mk := func(id string, closeAt time.Time) {
		hearing := &entities.Hearing{
			ModifiableBase: entities.ModifiableBase{ID: id, Published: true},
			OpenAt:         now.AddDate(0, 0, -10),
			CloseAt:        closeAt,
			Title:          id,
		}
		require.NoError(t, ds.CreateHearing(ctx, hearing))
	}
	mk("past", now.Add(-time.Hour))
	mk("soon", now.Add(time.Hour))
	mk("later", now.Add(48*time.Hour))

	hearings, err := ds.ListHearings(ctx, HearingFilter{NextClosing: &now})
	require.NoError(t, err)
	require.Len(t, hearings, 1)
	assert.Equal(t, "soon", hearings[0].ID)
}

func TestListHearingsLimit(t *testing.T) {
	ds := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c", "d"} {
		createTestHearing(t, ds, id)
	}
	hearings, err := ds.ListHearings(ctx, HearingFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, hearings, 2)
}

func TestPreserveTimestamps(t *testing.T) {
	ds := newTestStore(t)
	ctx := context.Background()

	created := time.Date(2015, 6, 4, 10, 0, 0, 0, time.UTC)
	modified := time.Date(2015, 7, 1, 12, 0, 0, 0, time.UTC)
	hearing := &entities.Hearing{
		ModifiableBase: entities.ModifiableBase{
			ID:                 "timestamps",
			CreatedAt:          created,
			ModifiedAt:         modified,
			Published:          true,
			PreserveTimestamps: true,
		},
		OpenAt:  created,
		CloseAt: created.AddDate(0, 3, 0),
		Title:   "Archived hearing",
	}
	require.NoError(t, ds.CreateHearing(ctx, hearing))

	got, err := ds.GetHearing(ctx, "timestamps")
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.True(t, got.ModifiedAt.Equal(modified))
}

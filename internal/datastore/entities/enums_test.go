package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentingWireCodec(t *testing.T) {
	wire := map[Commenting]string{
		CommentingNone:       "none",
		CommentingRegistered: "registered",
		CommentingOpen:       "open",
	}
	for value, want := range wire {
		got, err := value.Wire()
		require.NoError(t, err)
		assert.Equal(t, want, got)

		parsed, err := ParseCommenting(want)
		require.NoError(t, err)
		assert.Equal(t, value, parsed)
	}

	_, err := Commenting(42).Wire()
	assert.Error(t, err)
	_, err = ParseCommenting("everyone")
	assert.Error(t, err)
}

func TestCommentingJSON(t *testing.T) {
	data, err := json.Marshal(CommentingOpen)
	require.NoError(t, err)
	assert.Equal(t, `"open"`, string(data))

	var c Commenting
	require.NoError(t, json.Unmarshal([]byte(`"registered"`), &c))
	assert.Equal(t, CommentingRegistered, c)

	assert.Error(t, json.Unmarshal([]byte(`"shouting"`), &c))
	assert.Error(t, json.Unmarshal([]byte(`1`), &c), "numeric storage form is not wire format")
}

func TestSectionTypeValid(t *testing.T) {
	for _, valid := range []SectionType{
		SectionTypeIntroduction, SectionTypePlain, SectionTypeScenario, SectionTypeArea,
	} {
		assert.True(t, valid.Valid())
	}
	assert.False(t, SectionType("").Valid())
	assert.False(t, SectionType("appendix").Valid())
}

func TestCommentParentVariants(t *testing.T) {
	comment := &Comment{}
	comment.SetParent(HearingParent("h1"))
	require.NotNil(t, comment.HearingID)
	assert.Nil(t, comment.SectionID)
	assert.Equal(t, HearingParent("h1"), comment.Parent())

	comment.SetParent(SectionParent("s1"))
	require.NotNil(t, comment.SectionID)
	assert.Nil(t, comment.HearingID, "switching parents clears the other key")
	assert.Equal(t, SectionParent("s1"), comment.Parent())
}

func TestHearingClosed(t *testing.T) {
	h := &Hearing{
		OpenAt:  mustTime("2024-01-01T00:00:00Z"),
		CloseAt: mustTime("2024-02-01T00:00:00Z"),
	}
	assert.True(t, h.Closed(mustTime("2023-12-31T00:00:00Z")), "before window")
	assert.False(t, h.Closed(mustTime("2024-01-15T00:00:00Z")))
	assert.True(t, h.Closed(mustTime("2024-02-02T00:00:00Z")), "after window")

	h.ForceClosed = true
	assert.True(t, h.Closed(mustTime("2024-01-15T00:00:00Z")), "force-closed wins")
}

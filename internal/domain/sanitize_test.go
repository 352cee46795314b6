package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanTextStripsControls(t *testing.T) {
	got, err := CleanText("  hello\x07 world  ", 100)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
}

func TestCleanTextKeepsNewlinesAndTabs(t *testing.T) {
	got, err := CleanText("line one\nline two\ttabbed", 100)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\ttabbed", got)
}

func TestCleanTextEmptyAfterCleaning(t *testing.T) {
	_, err := CleanText("\x00\x01  ", 10)
	assert.ErrorIs(t, err, ErrTextEmpty)
}

func TestCleanTextBudgetIsCodepoints(t *testing.T) {
	got, err := CleanText(strings.Repeat("ü", 10), 10)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("ü", 10), got)

	_, err = CleanText(strings.Repeat("ü", 11), 10)
	assert.ErrorIs(t, err, ErrTextTooLong)
}

func TestCleanDisplayName(t *testing.T) {
	got, err := CleanDisplayName("  Ada Lovelace ")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got)

	got, err = CleanDisplayName("A\x08B")
	require.NoError(t, err)
	assert.Equal(t, "AB", got)

	_, err = CleanDisplayName("   ")
	assert.ErrorIs(t, err, ErrNameEmpty)

	_, err = CleanDisplayName(strings.Repeat("x", MaxDisplayNameChars+1))
	assert.ErrorIs(t, err, ErrNameTooLong)

	_, err = CleanDisplayName(strings.Repeat("ü", MaxDisplayNameChars))
	assert.NoError(t, err)
}

func TestNormalizeRole(t *testing.T) {
	cases := []struct {
		in   string
		want string
		err  error
	}{
		{"", RoleParticipant, nil},
		{RoleHost, RoleHost, nil},
		{RoleParticipant, RoleParticipant, nil},
		{"admin", "", ErrRole},
		{"host", "", ErrRole},
	}
	for _, tc := range cases {
		got, err := NormalizeRole(tc.in)
		if tc.err != nil {
			assert.ErrorIs(t, err, tc.err, "role %q", tc.in)
			continue
		}
		require.NoError(t, err, "role %q", tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestValidateRoomID(t *testing.T) {
	assert.NoError(t, ValidateRoomID("abc-123_DEF"))
	assert.ErrorIs(t, ValidateRoomID("abc"), ErrRoomID)
	assert.ErrorIs(t, ValidateRoomID(strings.Repeat("a", MaxRoomIDLen+1)), ErrRoomID)
	assert.ErrorIs(t, ValidateRoomID("room !"), ErrRoomID)
	assert.ErrorIs(t, ValidateRoomID("café-room"), ErrRoomID)
}

func TestNewRoomIDIsValid(t *testing.T) {
	id := NewRoomID()
	assert.NoError(t, ValidateRoomID(string(id)))
	assert.Len(t, string(id), 16)
	assert.NotEqual(t, id, NewRoomID())
}

func TestNewSessionIDShape(t *testing.T) {
	id := NewSessionID()
	assert.Len(t, string(id), 32)
	assert.NotEqual(t, id, NewSessionID())
}

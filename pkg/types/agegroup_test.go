package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgeGroupOrdering(t *testing.T) {
	groups := AgeGroups()
	require.Len(t, groups, 4)
	for i := 0; i < len(groups)-1; i++ {
		assert.True(t, groups[i].Less(groups[i+1]), "%s should be less than %s", groups[i], groups[i+1])
		assert.False(t, groups[i+1].Less(groups[i]))
	}
	assert.False(t, AgeGroupBigKids.Less(AgeGroupBigKids))
	assert.Equal(t, -1, AgeGroup("teens").Rank())
}

func TestAgeGroupRanges(t *testing.T) {
	tests := []struct {
		group    AgeGroup
		min, max int
		display  string
	}{
		{AgeGroupPreschoolers, 2, 4, "Preschoolers (2-4)"},
		{AgeGroupLittleKids, 5, 7, "Little Kids (5-7)"},
		{AgeGroupBigKids, 8, 9, "Big Kids (8-9)"},
		{AgeGroupTweens, 10, 12, "Tweens (10-12)"},
	}
	for _, tt := range tests {
		t.Run(string(tt.group), func(t *testing.T) {
			assert.Equal(t, tt.min, tt.group.MinAge())
			assert.Equal(t, tt.max, tt.group.MaxAge())
			assert.Equal(t, tt.display, tt.group.DisplayName())
			assert.True(t, tt.group.Contains(tt.min))
			assert.True(t, tt.group.Contains(tt.max))
			assert.False(t, tt.group.Contains(tt.max+1))
			assert.False(t, tt.group.Contains(tt.min-1))
		})
	}
}

func TestAgeGroupForAge(t *testing.T) {
	tests := []struct {
		age    int
		want   AgeGroup
		wantOK bool
	}{
		{1, "", false},
		{2, AgeGroupPreschoolers, true},
		{5, AgeGroupLittleKids, true},
		{9, AgeGroupBigKids, true},
		{12, AgeGroupTweens, true},
		{13, "", false},
	}
	for _, tt := range tests {
		got, ok := AgeGroupForAge(tt.age)
		assert.Equal(t, tt.wantOK, ok, "age %d", tt.age)
		assert.Equal(t, tt.want, got, "age %d", tt.age)
	}
}

func TestParseAgeGroup(t *testing.T) {
	g, err := ParseAgeGroup("LittleKids")
	require.NoError(t, err)
	assert.Equal(t, AgeGroupLittleKids, g)

	g, err = ParseAgeGroup(" tweens ")
	require.NoError(t, err)
	assert.Equal(t, AgeGroupTweens, g)

	_, err = ParseAgeGroup("adults")
	assert.ErrorIs(t, err, ErrInvalidAgeGroup)
}

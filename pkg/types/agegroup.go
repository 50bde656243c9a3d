package types

import (
	"fmt"
	"strings"
)

// AgeGroup buckets young viewers by age range. Groups are totally ordered:
// preschoolers < littleKids < bigKids < tweens.
type AgeGroup string

// Age groups, in ascending order.
const (
	AgeGroupPreschoolers AgeGroup = "preschoolers"
	AgeGroupLittleKids   AgeGroup = "littleKids"
	AgeGroupBigKids      AgeGroup = "bigKids"
	AgeGroupTweens       AgeGroup = "tweens"
)

type ageRange struct {
	label    string
	min, max int
}

// ageGroupOrder lists the groups from youngest to oldest. The index is the rank.
var ageGroupOrder = []AgeGroup{
	AgeGroupPreschoolers,
	AgeGroupLittleKids,
	AgeGroupBigKids,
	AgeGroupTweens,
}

var ageRanges = map[AgeGroup]ageRange{
	AgeGroupPreschoolers: {"Preschoolers", 2, 4},
	AgeGroupLittleKids:   {"Little Kids", 5, 7},
	AgeGroupBigKids:      {"Big Kids", 8, 9},
	AgeGroupTweens:       {"Tweens", 10, 12},
}

// AgeGroups returns every age group in ascending order.
func AgeGroups() []AgeGroup {
	out := make([]AgeGroup, len(ageGroupOrder))
	copy(out, ageGroupOrder)
	return out
}

// ParseAgeGroup returns the AgeGroup for an identifier. Matching ignores case.
// Returns ErrInvalidAgeGroup for unknown identifiers.
func ParseAgeGroup(s string) (AgeGroup, error) {
	s = strings.TrimSpace(s)
	for _, g := range ageGroupOrder {
		if strings.EqualFold(string(g), s) {
			return g, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAgeGroup, s)
}

// AgeGroupForAge returns the group whose range contains age.
// The second result is false when age falls outside every group.
func AgeGroupForAge(age int) (AgeGroup, bool) {
	for _, g := range ageGroupOrder {
		if g.Contains(age) {
			return g, true
		}
	}
	return "", false
}

// Valid reports whether g is one of the defined groups.
func (g AgeGroup) Valid() bool {
	_, ok := ageRanges[g]
	return ok
}

// Rank returns the position of g in the ordering, or -1 if g is not valid.
func (g AgeGroup) Rank() int {
	for i, o := range ageGroupOrder {
		if o == g {
			return i
		}
	}
	return -1
}

// Less reports whether g is a younger group than other.
func (g AgeGroup) Less(other AgeGroup) bool {
	return g.Rank() < other.Rank()
}

// MinAge returns the youngest age in the group (0 for invalid groups).
func (g AgeGroup) MinAge() int { return ageRanges[g].min }

// MaxAge returns the oldest age in the group (0 for invalid groups).
func (g AgeGroup) MaxAge() int { return ageRanges[g].max }

// Contains reports whether age lies within the group's range.
func (g AgeGroup) Contains(age int) bool {
	r, ok := ageRanges[g]
	return ok && age >= r.min && age <= r.max
}

// DisplayName returns a label such as "Little Kids (5-7)".
func (g AgeGroup) DisplayName() string {
	r, ok := ageRanges[g]
	if !ok {
		return string(g)
	}
	return fmt.Sprintf("%s (%d-%d)", r.label, r.min, r.max)
}

func (g AgeGroup) String() string { return string(g) }

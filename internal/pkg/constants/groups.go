package constants

const (
	GroupAdmin       = "Admin"
	GroupAntiquarian = "Antiquarian"
)

// ValidGroups is the set of directory groups the workflow recognizes.
var ValidGroups = []string{GroupAdmin, GroupAntiquarian}

// IsValidGroup returns true if name is one of the recognized groups.
func IsValidGroup(name string) bool {
	for _, g := range ValidGroups {
		if g == name {
			return true
		}
	}
	return false
}

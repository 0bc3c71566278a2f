// Package scope decides whose receipts an operation touches: the calling
// user's personal pile, or the shared pile of the group they belong to. It
// also owns user onboarding, approval state, and group membership.
package scope

// Kind tags a resolved scope.
type Kind string

const (
	KindPersonal Kind = "personal"
	KindGroup    Kind = "group"
)

// PersonalLabel is what summaries and listings show for the personal scope.
const PersonalLabel = "(personal)"

// UnnamedGroupLabel stands in for a group whose name field is empty.
const UnnamedGroupLabel = "Unnamed Group"

// Scope is the resolved target of a storage operation. Key is the user id for
// personal scopes and the group id for group scopes.
type Scope struct {
	Kind  Kind
	Key   string
	Label string
}

func Personal(userID string) Scope {
	return Scope{Kind: KindPersonal, Key: userID, Label: PersonalLabel}
}

func ForGroup(groupID, name string) Scope {
	if name == "" {
		name = UnnamedGroupLabel
	}
	return Scope{Kind: KindGroup, Key: groupID, Label: name}
}

func (s Scope) IsGroup() bool {
	return s.Kind == KindGroup
}

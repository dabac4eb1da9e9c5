package domain

// Member is a chat participant.
// Member IDs are stable identifiers; display names and aliases may
// change over time but never retroactively change message attribution.
type Member struct {
	// ID is the stable member identifier.
	ID string

	// DisplayName is the member's current name.
	DisplayName string

	// Aliases holds current and historical nicknames, used to resolve
	// @name mention text back to the member ID.
	Aliases []string
}

// AliasIndex resolves mention tokens to member IDs.
// Built once per scoring pass from the member table.
type AliasIndex struct {
	byName map[string]string
	names  map[string]string // member ID -> current display name
}

// NewAliasIndex builds the resolution table for the given members.
// Historical aliases are inserted first; each member's current display
// name is inserted last and takes precedence when the existing entry is
// a generic self-mapping (a name that previously resolved to an ID equal
// to the name itself). An alias legitimately owned by another member is
// never stolen.
func NewAliasIndex(members []Member) *AliasIndex {
	idx := &AliasIndex{
		byName: make(map[string]string),
		names:  make(map[string]string, len(members)),
	}
	for _, m := range members {
		idx.names[m.ID] = m.DisplayName
		for _, alias := range m.Aliases {
			if alias == "" {
				continue
			}
			if _, ok := idx.byName[alias]; !ok {
				idx.byName[alias] = m.ID
			}
		}
	}
	for _, m := range members {
		if m.DisplayName == "" {
			continue
		}
		existing, ok := idx.byName[m.DisplayName]
		if !ok || existing == m.DisplayName {
			idx.byName[m.DisplayName] = m.ID
		}
	}
	return idx
}

// Resolve returns the member ID for a mention token.
// Unknown tokens resolve to ("", false) and are dropped by callers:
// under-counting mentions is preferred over false attribution.
func (idx *AliasIndex) Resolve(token string) (string, bool) {
	id, ok := idx.byName[token]
	return id, ok
}

// DisplayName returns the current display name for a member ID,
// falling back to the ID itself for unknown members.
func (idx *AliasIndex) DisplayName(id string) string {
	if name, ok := idx.names[id]; ok && name != "" {
		return name
	}
	return id
}

// Len returns the number of resolvable names.
func (idx *AliasIndex) Len() int {
	return len(idx.byName)
}

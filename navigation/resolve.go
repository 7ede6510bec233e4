package navigation

import "strings"

// UserPlaceholder marks the spot in a path template bound to the current
// user's identifier.
const UserPlaceholder = ":userId"

// Link is a resolved entry ready to render.
type Link struct {
	Path   string
	Label  string
	Icon   string
	Active bool
}

// Resolve substitutes currentUserID into entry's template and marks the link
// active when the concrete path equals currentRoute exactly. An empty user id
// substitutes the empty string.
func Resolve(entry Entry, currentUserID, currentRoute string) Link {
	path := entry.PathTemplate
	if strings.Contains(path, UserPlaceholder) {
		path = strings.ReplaceAll(path, UserPlaceholder, currentUserID)
	}

	return Link{
		Path:   path,
		Label:  entry.Label,
		Icon:   entry.Icon,
		Active: path == currentRoute,
	}
}

// ResolveAll resolves entries in order.
func ResolveAll(entries []Entry, currentUserID, currentRoute string) []Link {
	links := make([]Link, 0, len(entries))
	for _, e := range entries {
		links = append(links, Resolve(e, currentUserID, currentRoute))
	}
	return links
}

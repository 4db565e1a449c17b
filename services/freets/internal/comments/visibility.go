// Package comments decides which comments a viewer may see and assembles
// them into reply trees.
package comments

import (
	"strings"

	"github.com/example/fritter/services/freets/internal/domain"
	"github.com/example/fritter/services/freets/internal/store"
)

// Anonymous is the viewer id of an unauthenticated caller.
const Anonymous = ""

// IsVisible reports whether viewer may see a comment written by
// commentAuthor on a post written by postAuthor. Public comments are visible
// to everyone; private ones only to their author and the post author.
func IsVisible(viewer, postAuthor, commentAuthor string, isPrivate bool) bool {
	if !isPrivate {
		return true
	}
	if viewer == Anonymous {
		return false
	}
	return viewer == commentAuthor || viewer == postAuthor
}

// ParseFilter maps a caller supplied visibility filter to a store filter.
// The empty string means no filter.
func ParseFilter(raw string) (store.Visibility, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return store.VisibilityAny, nil
	case "public":
		return store.VisibilityPublic, nil
	case "private":
		return store.VisibilityPrivate, nil
	default:
		return store.VisibilityAny, domain.Invalid(domain.CodeInvalidVisibility, "visibility",
			"visibility must be either public or private")
	}
}

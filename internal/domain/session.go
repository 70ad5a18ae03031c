package domain

import "strconv"

// VisibilityState is the page visibility reported by a browsing session.
type VisibilityState string

const (
	VisibilityVisible VisibilityState = "visible"
	VisibilityHidden  VisibilityState = "hidden"
)

// NavigationType is how the current page of a session was reached, using the
// Navigation Timing names.
type NavigationType string

const (
	NavigationNavigate    NavigationType = "navigate"
	NavigationReload      NavigationType = "reload"
	NavigationBackForward NavigationType = "back_forward"
	NavigationPrerender   NavigationType = "prerender"
)

// Valid reports whether t is a known navigation type.
func (t NavigationType) Valid() bool {
	switch t {
	case NavigationNavigate, NavigationReload, NavigationBackForward, NavigationPrerender:
		return true
	}
	return false
}

// ShouldInvalidateComparison reports whether a visibility change means the
// shopper navigated away. Hiding the page during a reload keeps the cached
// comparison so results survive a refresh.
func ShouldInvalidateComparison(state VisibilityState, nav NavigationType) bool {
	return state == VisibilityHidden && nav != NavigationReload
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

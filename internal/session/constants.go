// Package session holds the per-user presentation state that a browser would
// otherwise keep in local storage: filters, search term, selected entity type
// and user hints. State is namespaced by a hash of the auth token.
package session

const (
	// CookieName is the name of the cookie that stores the backend auth token.
	CookieName = "AUTH_TOKEN"

	// CookiePath ensures the cookie is sent with all requests.
	CookiePath = "/"

	// CookieMaxAge is the default cookie lifetime (12 hours).
	CookieMaxAge = 12 * 60 * 60
)

// Keys of the persisted presentation state.
const (
	KeySelectedFilters = "selectedFilters"
	KeySearchTerm      = "searchTerm"
	KeyClientTypeID    = "currentClientTypeId"
	KeyUserID          = "userId"
	KeyUserRole        = "userRole"
	KeyFullName        = "fullName"
	KeyAuthorities     = "authorities"
)

// UserKeys are the keys written at sign-in.
var UserKeys = []string{KeyUserID, KeyUserRole, KeyFullName, KeyAuthorities}

package auth

import "github.com/DukeRupert/tradedesk/internal/templ/shared"

// LoginPageData contains data for the login page
type LoginPageData struct {
	Layout    shared.LayoutData
	Login     string // re-populated after a failed attempt, never the password
	ReturnTo  string
	CSRFToken string
	Error     string
	Labels    LoginLabels
}

// LoginLabels are the localized texts of the login form.
type LoginLabels struct {
	Username string
	Password string
	Submit   string
}

// Package shared holds the layout, flash messages and class merging used by
// every templ component.
package shared

import (
	"encoding/json"
	"strings"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Script sources. The CSP in middleware/security.go allows unpkg.com.
const (
	htmxSrc   = "https://unpkg.com/htmx.org@1.9.12"
	alpineSrc = "https://unpkg.com/alpinejs@3.14.1/dist/cdn.min.js"
)

// FlashType selects the styling of a flash message.
type FlashType string

const (
	FlashSuccess FlashType = "success"
	FlashError   FlashType = "error"
	FlashInfo    FlashType = "info"
)

// Flash is a one-off message shown to the user.
type Flash struct {
	Type    FlashType
	Message string
}

var flashClasses = map[FlashType]string{
	FlashSuccess: "bg-green-50 text-green-800 border-green-200",
	FlashError:   "bg-red-50 text-red-800 border-red-200",
	FlashInfo:    "bg-blue-50 text-blue-800 border-blue-200",
}

// NavItem is one entry of the top navigation.
type NavItem struct {
	Href   string
	Label  string
	Active bool
}

// UserDisplay is the signed-in user as shown in the header.
type UserDisplay struct {
	Name string
	Role string
}

// LayoutData is shared by every full page.
type LayoutData struct {
	Title       string
	Lang        string
	CSRFToken   string
	User        *UserDisplay
	Nav         []NavItem
	LogoutLabel string
	LoadingText string
	Flash       *Flash
}

// Classes merges Tailwind class lists so later classes win over conflicting
// earlier ones.
func Classes(classes ...string) string {
	return twmerge.Merge(strings.Join(classes, " "))
}

// csrfHeaders is the hx-headers value that sends the CSRF token with every
// htmx request.
func csrfHeaders(token string) string {
	b, _ := json.Marshal(map[string]string{"X-CSRF-Token": token})
	return string(b)
}

// RoleLabel turns a backend role such as "SALES_MANAGER" into "Sales Manager".
func RoleLabel(role string) string {
	role = strings.ReplaceAll(strings.TrimSpace(role), "_", " ")
	return cases.Title(language.Und).String(strings.ToLower(role))
}

func activeNavClass(on bool) string {
	if on {
		return "text-blue-700"
	}
	return ""
}

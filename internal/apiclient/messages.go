package apiclient

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/DukeRupert/tradedesk/internal/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys that are not backend error codes.
const (
	MsgTransport    = "error.transport"
	MsgUnknown      = "error.unknown"
	MsgStale        = "error.stale"
	MsgYes          = "ui.yes"
	MsgNo           = "ui.no"
	MsgSummary      = "pagination.summary"
	MsgNoRecords    = "table.empty"
	MsgEditing      = "edit.busy"
	MsgSaved        = "edit.saved"
	MsgDeleted      = "record.deleted"
	MsgFiltersReset = "filters.cleared"
	MsgLoginFailed  = "login.failed"
	MsgLoginMissing = "login.missing"
	MsgSignedOut    = "login.signedOut"
)

// Generic backend error codes. Each entity kind adds <PREFIX>_NOT_FOUND and
// <PREFIX>_ERROR_DEFAULT.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeAccessDenied = "ACCESS_DENIED"
	CodeUnauthorized = "UNAUTHORIZED"
)

type entry struct {
	uk, en string
}

var entries = map[string]entry{
	MsgTransport:    {"Не вдалося виконати запит", "Cannot execute request"},
	MsgUnknown:      {"Невідома помилка", "Unknown error"},
	MsgStale:        {"Дані застаріли, оновіть сторінку", "Data is out of date, reload the page"},
	MsgYes:          {"Так", "Yes"},
	MsgNo:           {"Ні", "No"},
	MsgSummary:      {"Записів: %d, сторінка %d з %d", "%d records, page %d of %d"},
	MsgNoRecords:    {"Записів не знайдено", "No records found"},
	MsgEditing:      {"Спочатку збережіть або скасуйте поточне редагування", "Save or cancel the current edit first"},
	MsgSaved:        {"Збережено", "Saved"},
	MsgDeleted:      {"Запис видалено", "Record deleted"},
	MsgFiltersReset: {"Фільтри скинуто", "Filters cleared"},
	MsgLoginFailed:  {"Невірний логін або пароль", "Invalid login or password"},
	MsgLoginMissing: {"Введіть логін і пароль", "Enter your login and password"},
	MsgSignedOut:    {"Ви вийшли з системи", "You have been signed out"},

	"nav.clients":      {"Клієнти", "Clients"},
	"nav.purchases":    {"Закупівлі", "Purchases"},
	"nav.containers":   {"Тара", "Containers"},
	"nav.stock":        {"Склад", "Stock"},
	"nav.transactions": {"Фінанси", "Transactions"},

	"ui.search":        {"Пошук", "Search"},
	"ui.filters":       {"Фільтри", "Filters"},
	"ui.apply":         {"Застосувати", "Apply"},
	"ui.clear":         {"Скинути", "Clear"},
	"ui.export":        {"Експорт", "Export"},
	"ui.delete":        {"Видалити", "Delete"},
	"ui.confirmDelete": {"Видалити запис?", "Delete this record?"},
	"ui.close":         {"Закрити", "Close"},
	"ui.save":          {"Зберегти", "Save"},
	"ui.cancel":        {"Скасувати", "Cancel"},
	"ui.type":          {"Тип", "Type"},
	"ui.loading":       {"Завантаження…", "Loading…"},
	"ui.logout":        {"Вийти", "Sign out"},
	"ui.login":         {"Увійти", "Sign in"},
	"ui.username":      {"Логін", "Login"},
	"ui.password":      {"Пароль", "Password"},
	"ui.from":          {"від", "from"},
	"ui.to":            {"до", "to"},

	"filter.createdAtFrom": {"Створено з", "Created from"},
	"filter.createdAtTo":   {"Створено до", "Created to"},
	"filter.updatedAtFrom": {"Оновлено з", "Updated from"},
	"filter.updatedAtTo":   {"Оновлено до", "Updated to"},
	"filter.showInactive":  {"Показати неактивних", "Show inactive"},

	"column.company":   {"Назва", "Name"},
	"column.source":    {"Джерело", "Source"},
	"column.user":      {"Менеджер", "Manager"},
	"column.product":   {"Товар", "Product"},
	"column.quantity":  {"Кількість", "Quantity"},
	"column.amount":    {"Сума", "Amount"},
	"column.currency":  {"Валюта", "Currency"},
	"column.createdAt": {"Створено", "Created"},
	"column.updatedAt": {"Оновлено", "Updated"},

	CodeValidation:   {"Перевірте правильність заповнення полів", "Check the highlighted fields"},
	CodeNotFound:     {"Не знайдено", "Not found"},
	CodeAccessDenied: {"Недостатньо прав", "Access denied"},
	CodeUnauthorized: {"Потрібна авторизація", "Please sign in"},
}

var entityNames = map[string]entry{
	"CLIENT":      {"Клієнта", "Client"},
	"PURCHASE":    {"Закупівлю", "Purchase"},
	"CONTAINER":   {"Тару", "Container"},
	"STOCK":       {"Складський запис", "Stock entry"},
	"TRANSACTION": {"Транзакцію", "Transaction"},
}

// knownCodes are the backend error codes with a localized default.
var knownCodes = map[string]bool{}

var messageCatalog = buildCatalog()

func buildCatalog() catalog.Catalog {
	for prefix, name := range entityNames {
		entries[prefix+"_NOT_FOUND"] = entry{
			uk: name.uk + " не знайдено",
			en: name.en + " not found",
		}
		entries[prefix+"_ERROR_DEFAULT"] = entry{
			uk: "Помилка обробки: " + strings.ToLower(name.uk),
			en: name.en + " could not be processed",
		}
	}

	b := catalog.NewBuilder(catalog.Fallback(language.Ukrainian))
	for key, e := range entries {
		if !strings.Contains(key, ".") {
			knownCodes[key] = true
		}
		_ = b.SetString(language.Ukrainian, key, e.uk)
		_ = b.SetString(language.English, key, e.en)
	}
	return b
}

// Messages renders user-facing text in one language.
type Messages struct {
	tag     language.Tag
	printer *message.Printer
}

// NewMessages returns a catalog for lang ("uk" or "en"); anything else gets Ukrainian.
func NewMessages(lang string) *Messages {
	tag := language.Ukrainian
	if t, err := language.Parse(lang); err == nil {
		if base, _ := t.Base(); base.String() == "en" {
			tag = language.English
		}
	}
	return &Messages{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(messageCatalog)),
	}
}

// Lang is the BCP 47 tag of the catalog in use.
func (m *Messages) Lang() string {
	return m.tag.String()
}

// T returns the localized text for key formatted with args.
func (m *Messages) T(key string, args ...any) string {
	return m.printer.Sprintf(key, args...)
}

// UserMessage turns any error from this package (or the domain layer) into the
// single line shown to the user.
//
// Known backend codes show the server's message when it sent one and the
// localized default otherwise. Unknown codes show "<code>: <message>".
// Network failures show the generic "cannot execute request".
func (m *Messages) UserMessage(err error) string {
	if err == nil {
		return ""
	}

	if IsTransport(err) {
		return m.T(MsgTransport)
	}

	if ae, ok := AsAPIError(err); ok {
		var msg string
		switch {
		case knownCodes[ae.Code] && ae.Message != "":
			msg = ae.Message
		case knownCodes[ae.Code]:
			msg = m.T(ae.Code)
		case ae.Message != "":
			msg = fmt.Sprintf("%s: %s", ae.Code, ae.Message)
		default:
			msg = fmt.Sprintf("%s: %s", ae.Code, m.T(MsgUnknown))
		}
		return msg + formatDetails(ae.Details)
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return m.T(CodeValidation) + formatDetails(ve.Fields)
	}

	switch domain.ErrorCode(err) {
	case domain.ESTALE:
		return m.T(MsgStale)
	case domain.EINVALID, domain.EFORBIDDEN, domain.ENOTFOUND, domain.ECONFLICT:
		return domain.ErrorMessage(err)
	}
	return m.T(MsgUnknown)
}

func formatDetails(details map[string]string) string {
	if len(details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString("\n")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(details[k])
	}
	return b.String()
}

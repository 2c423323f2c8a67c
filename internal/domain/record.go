package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Record is one backend-owned row of a list page: a client, purchase, container
// balance, stock line or finance transaction. The browser only ever holds the
// current page of records.
type Record struct {
	ID          int64        `json:"id"`
	Company     string       `json:"company,omitempty"`
	Name        string       `json:"name,omitempty"`
	SourceID    *int64       `json:"sourceId,omitempty"`
	UserID      *int64       `json:"userId,omitempty"`
	ProductID   *int64       `json:"productId,omitempty"`
	ClientID    *int64       `json:"clientId,omitempty"`
	Quantity    *float64     `json:"quantity,omitempty"`
	Amount      *float64     `json:"amount,omitempty"`
	Currency    string       `json:"currency,omitempty"`
	Description string       `json:"description,omitempty"`
	IsActive    *bool        `json:"isActive,omitempty"`
	CreatedAt   *time.Time   `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time   `json:"updatedAt,omitempty"`
	FieldValues []FieldValue `json:"fieldValues,omitempty"`
}

// PrimaryName is the text shown in the click-activated name column.
func (r Record) PrimaryName() string {
	if strings.TrimSpace(r.Company) != "" {
		return r.Company
	}
	return r.Name
}

// ValuesFor returns the record's values for a field in backend order.
func (r Record) ValuesFor(fieldID int64) []FieldValue {
	var out []FieldValue
	for _, v := range r.FieldValues {
		if v.FieldID == fieldID {
			out = append(out, v)
		}
	}
	return out
}

// Page is the envelope returned by paginated search endpoints.
type Page struct {
	Content       []Record `json:"content"`
	TotalElements int64    `json:"totalElements"`
	TotalPages    int      `json:"totalPages"`
}

// Lookups are id→name maps used to render foreign keys. They are best-effort:
// a missing id renders as the id itself.
type Lookups struct {
	Users    map[int64]string
	Sources  map[int64]string
	Products map[int64]string
}

// EmptyLookups returns lookups with non-nil, empty maps.
func EmptyLookups() Lookups {
	return Lookups{
		Users:    map[int64]string{},
		Sources:  map[int64]string{},
		Products: map[int64]string{},
	}
}

// NamedRef is an {id, name} pair as returned by the backend entity listing.
type NamedRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UnmarshalJSON accepts both "name" and "fullName" for user entries.
func (n *NamedRef) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		FullName string `json:"fullName"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	n.ID = raw.ID
	n.Name = raw.Name
	if n.Name == "" {
		n.Name = raw.FullName
	}
	return nil
}

// ToMap indexes refs by id.
func ToMap(refs []NamedRef) map[int64]string {
	m := make(map[int64]string, len(refs))
	for _, r := range refs {
		m[r.ID] = r.Name
	}
	return m
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilters_Normalize(t *testing.T) {
	f := Filters{
		"source":  {"3", "", "null", " 4 "},
		"segment": {"", "null"},
		"":        {"x"},
		"region":  {},
	}

	got := f.Normalize()

	assert.Equal(t, Filters{"source": {"3", "4"}}, got)
	assert.Equal(t, 2, got.Count())
}

func TestFilters_Only(t *testing.T) {
	f := Filters{"source": {"1"}, "createdAtFrom": {"2024-01-01"}, "segment": {"5"}}

	got := f.Only(PreservedFilterKeys)

	assert.Equal(t, Filters{"source": {"1"}, "createdAtFrom": {"2024-01-01"}}, got)
}

func TestFilterKeysFor(t *testing.T) {
	assert.Equal(t, []string{"weightFrom", "weightTo"}, FilterKeysFor(FieldDefinition{Name: "weight", Type: FieldTypeNumber}))
	assert.Equal(t, []string{"bornFrom", "bornTo"}, FilterKeysFor(FieldDefinition{Name: "born", Type: FieldTypeDate}))
	assert.Equal(t, []string{"segment"}, FilterKeysFor(FieldDefinition{Name: "segment", Type: FieldTypeList}))
}

func TestDefaultDirection(t *testing.T) {
	assert.Equal(t, DESC, DefaultDirection("updatedAt"))
	assert.Equal(t, DESC, DefaultDirection("createdAt"))
	assert.Equal(t, DESC, DefaultDirection("paymentDate"))
	assert.Equal(t, ASC, DefaultDirection("quantity"))
	assert.Equal(t, ASC, DefaultDirection("company"))
}

func TestParseAuthorities(t *testing.T) {
	assert.Equal(t, []string{"client:view", "client:export"}, ParseAuthorities(`["client:view","client:export"]`))
	assert.Equal(t, []string{"client:view", "client:export"}, ParseAuthorities("client:view, client:export,,client:view"))
	assert.Nil(t, ParseAuthorities(" "))
}

func TestSessionUser_Can(t *testing.T) {
	u := &SessionUser{Role: "MANAGER", Authorities: []string{"client:export"}}
	assert.True(t, u.Can("CLIENT:EXPORT"))
	assert.False(t, u.Can("finance:export"))

	admin := &SessionUser{Role: "admin"}
	assert.True(t, admin.Can("anything"))

	var nobody *SessionUser
	assert.False(t, nobody.Can("client:view"))
}

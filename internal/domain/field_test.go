package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortByDisplayOrder_StableForTies(t *testing.T) {
	fields := []FieldDefinition{
		{ID: 1, Name: "c", DisplayOrder: 2},
		{ID: 2, Name: "a", DisplayOrder: 1},
		{ID: 3, Name: "b", DisplayOrder: 2},
		{ID: 4, Name: "d", DisplayOrder: 1},
		{ID: 5, Name: "e", DisplayOrder: 0},
	}

	sorted := SortByDisplayOrder(fields)

	var ids []int64
	for _, f := range sorted {
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []int64{5, 2, 4, 1, 3}, ids)
	// input untouched
	assert.Equal(t, int64(1), fields[0].ID)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		in     FieldType
		want   FieldType
		ranged bool
	}{
		{FieldTypeText, FieldTypeText, false},
		{FieldTypePhone, FieldTypePhone, false},
		{FieldTypeNumber, FieldTypeNumber, true},
		{FieldTypeDate, FieldTypeDate, true},
		{FieldTypeList, FieldTypeList, false},
		{FieldTypeBoolean, FieldTypeBoolean, false},
		{"date", FieldTypeDate, true},
		{"SOMETHING_NEW", FieldTypeText, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			k := KindOf(tt.in)
			assert.Equal(t, tt.want, k.Type())
			assert.Equal(t, tt.ranged, k.Ranged())
		})
	}
}

func TestFieldKind_Format(t *testing.T) {
	text := "hello"
	num := 12.5
	date := "2024-03-09T00:00:00"
	yes := true
	list := FieldDefinition{ID: 7, Type: FieldTypeList, ListValues: []ListValue{{ID: 3, Value: "Wholesale"}}}

	assert.Equal(t, "hello", KindOf(FieldTypeText).Format(FieldDefinition{}, FieldValue{ValueText: &text}))
	assert.Equal(t, "12.5", KindOf(FieldTypeNumber).Format(FieldDefinition{}, FieldValue{ValueNumber: &num}))
	assert.Equal(t, "09.03.2024", KindOf(FieldTypeDate).Format(FieldDefinition{}, FieldValue{ValueDate: &date}))
	assert.Equal(t, "true", KindOf(FieldTypeBoolean).Format(FieldDefinition{}, FieldValue{ValueBoolean: &yes}))
	assert.Equal(t, "Wholesale", KindOf(FieldTypeList).Format(list, FieldValue{ValueList: &ListValue{ID: 3}}))
	assert.Equal(t, "", KindOf(FieldTypeNumber).Format(FieldDefinition{}, FieldValue{}))
}

func TestFieldKind_InputValue(t *testing.T) {
	num := 3.0
	date := "2024-03-09T00:00:00"
	no := false

	assert.Equal(t, "3", KindOf(FieldTypeNumber).InputValue(FieldValue{ValueNumber: &num}))
	assert.Equal(t, "2024-03-09", KindOf(FieldTypeDate).InputValue(FieldValue{ValueDate: &date}))
	assert.Equal(t, "false", KindOf(FieldTypeBoolean).InputValue(FieldValue{ValueBoolean: &no}))
	assert.Equal(t, "3", KindOf(FieldTypeList).InputValue(FieldValue{ValueList: &ListValue{ID: 3, Value: "Wholesale"}}))
	assert.Equal(t, "", KindOf(FieldTypeList).InputValue(FieldValue{}))
	assert.Equal(t, "", KindOf(FieldTypePhone).InputValue(FieldValue{}))

	def := FieldDefinition{ID: 2, Type: FieldTypeDate, Label: "Due"}
	v, err := def.Kind().ParseInput(def, def.Kind().InputValue(FieldValue{ValueDate: &date}))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-09", *v.ValueDate)
}

func TestFieldKind_ParseInput(t *testing.T) {
	t.Run("number accepts comma decimal", func(t *testing.T) {
		v, err := KindOf(FieldTypeNumber).ParseInput(FieldDefinition{ID: 1, Label: "Qty"}, "1,5")
		require.NoError(t, err)
		require.NotNil(t, v.ValueNumber)
		assert.Equal(t, 1.5, *v.ValueNumber)
		assert.Equal(t, int64(1), v.FieldID)
	})

	t.Run("number rejects text", func(t *testing.T) {
		_, err := KindOf(FieldTypeNumber).ParseInput(FieldDefinition{Name: "qty", Label: "Qty"}, "abc")
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Fields, "qty")
	})

	t.Run("required text", func(t *testing.T) {
		_, err := KindOf(FieldTypeText).ParseInput(FieldDefinition{Name: "note", Label: "Note", Required: true}, "  ")
		assert.Error(t, err)
	})

	t.Run("validation pattern", func(t *testing.T) {
		def := FieldDefinition{Name: "code", Label: "Code", ValidationPattern: `^[A-Z]{3}$`}
		_, err := KindOf(FieldTypeText).ParseInput(def, "ab")
		assert.Error(t, err)
		v, err := KindOf(FieldTypeText).ParseInput(def, "ABC")
		require.NoError(t, err)
		assert.Equal(t, "ABC", *v.ValueText)
	})

	t.Run("phone", func(t *testing.T) {
		def := FieldDefinition{Name: "phone", Label: "Phone", Type: FieldTypePhone}
		_, err := def.Kind().ParseInput(def, "call me")
		assert.Error(t, err)
		v, err := def.Kind().ParseInput(def, "+380 (67) 123-45-67")
		require.NoError(t, err)
		assert.Equal(t, "+380 (67) 123-45-67", *v.ValueText)
	})

	t.Run("list must reference a known option", func(t *testing.T) {
		def := FieldDefinition{ID: 2, Name: "segment", Label: "Segment", Type: FieldTypeList,
			ListValues: []ListValue{{ID: 10, Value: "Retail"}}}
		_, err := def.Kind().ParseInput(def, "11")
		assert.Error(t, err)
		v, err := def.Kind().ParseInput(def, "10")
		require.NoError(t, err)
		assert.Equal(t, "Retail", v.ValueList.Value)
	})

	t.Run("date", func(t *testing.T) {
		def := FieldDefinition{Name: "born", Label: "Born", Type: FieldTypeDate}
		_, err := def.Kind().ParseInput(def, "09.03.2024")
		assert.Error(t, err)
		v, err := def.Kind().ParseInput(def, "2024-03-09")
		require.NoError(t, err)
		assert.Equal(t, "2024-03-09", *v.ValueDate)
	})

	t.Run("boolean", func(t *testing.T) {
		def := FieldDefinition{Name: "vip", Label: "VIP", Type: FieldTypeBoolean}
		v, err := def.Kind().ParseInput(def, "true")
		require.NoError(t, err)
		assert.True(t, *v.ValueBoolean)
	})
}

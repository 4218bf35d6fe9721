package card

import "fmt"

// Field identifies one of the six card fields.
//
// The declaration order is the order in which the create flow collects
// them. Every switch over Field in this module is total; adding a field
// means touching each of them.
type Field int

const (
	FieldName Field = iota + 1
	FieldSurname
	FieldLocation
	FieldPhone
	FieldInstagram
	FieldProfession
)

// Fields lists every field in collection order.
var Fields = []Field{
	FieldName,
	FieldSurname,
	FieldLocation,
	FieldPhone,
	FieldInstagram,
	FieldProfession,
}

// Key is the stable external name of the field, used in button actions
// ("edit_<key>"), scenario files and JSON output.
func (f Field) Key() string {
	switch f {
	case FieldName:
		return "name"
	case FieldSurname:
		return "surname"
	case FieldLocation:
		return "location"
	case FieldPhone:
		return "phone"
	case FieldInstagram:
		return "instagramHandle"
	case FieldProfession:
		return "profession"
	}
	panic(fmt.Sprintf("card: unknown field %d", int(f)))
}

// Column is the SQL column holding the field.
func (f Field) Column() string {
	switch f {
	case FieldName:
		return "name"
	case FieldSurname:
		return "surname"
	case FieldLocation:
		return "location"
	case FieldPhone:
		return "phone"
	case FieldInstagram:
		return "instagram"
	case FieldProfession:
		return "profession"
	}
	panic(fmt.Sprintf("card: unknown field %d", int(f)))
}

// String implements fmt.Stringer.
func (f Field) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return f.Key()
}

// Valid reports whether f belongs to the closed set.
func (f Field) Valid() bool {
	return f >= FieldName && f <= FieldProfession
}

// Ordinal is the 1-based position of f in the create flow.
func (f Field) Ordinal() int {
	if !f.Valid() {
		panic(fmt.Sprintf("card: unknown field %d", int(f)))
	}
	return int(f)
}

// Next returns the field collected after f.
// ok is false when f is the last field.
func (f Field) Next() (next Field, ok bool) {
	if f.Ordinal() == len(Fields) {
		return 0, false
	}
	return f + 1, true
}

// First is the field the create flow starts with.
func First() Field {
	return Fields[0]
}

// ParseField resolves a field key.
func ParseField(key string) (Field, bool) {
	for _, f := range Fields {
		if f.Key() == key {
			return f, true
		}
	}
	return 0, false
}

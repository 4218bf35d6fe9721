// Package card defines the business card record and the closed set of
// fields it is made of.
//
// A Card is either complete (all six fields collected) or it does not exist
// in the store. Partially filled cards only live in a conversation draft.
package card

import "fmt"

// UserID identifies the chat user that owns a card.
// It is supplied by the transport and treated as opaque.
type UserID int64

// String returns the decimal form used in logs and CLI output.
func (u UserID) String() string {
	return fmt.Sprintf("%d", u)
}

// Card is the six-field digital business card.
type Card struct {
	Name       string `json:"name" yaml:"name"`
	Surname    string `json:"surname" yaml:"surname"`
	Location   string `json:"location" yaml:"location"`
	Phone      string `json:"phone" yaml:"phone"`
	Instagram  string `json:"instagram_handle" yaml:"instagram_handle"`
	Profession string `json:"profession" yaml:"profession"`
}

// Get returns the value of field f.
// Panics on a field outside the closed set.
func (c Card) Get(f Field) string {
	switch f {
	case FieldName:
		return c.Name
	case FieldSurname:
		return c.Surname
	case FieldLocation:
		return c.Location
	case FieldPhone:
		return c.Phone
	case FieldInstagram:
		return c.Instagram
	case FieldProfession:
		return c.Profession
	}
	panic(fmt.Sprintf("card: unknown field %d", int(f)))
}

// Set stores value into field f.
// Panics on a field outside the closed set.
func (c *Card) Set(f Field, value string) {
	switch f {
	case FieldName:
		c.Name = value
	case FieldSurname:
		c.Surname = value
	case FieldLocation:
		c.Location = value
	case FieldPhone:
		c.Phone = value
	case FieldInstagram:
		c.Instagram = value
	case FieldProfession:
		c.Profession = value
	default:
		panic(fmt.Sprintf("card: unknown field %d", int(f)))
	}
}

// With returns a copy of c with field f set to value.
func (c Card) With(f Field, value string) Card {
	c.Set(f, value)
	return c
}

// Record is a stored card together with its storage identity.
type Record struct {
	Card
	UserID UserID `json:"user_id"`

	// Seq is assigned by the store; the highest Seq per user is the latest card.
	Seq int64 `json:"seq"`
}

package chat

import (
	"strings"

	"github.com/orsinium-labs/enum"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/card"
)

// Action is a button action id understood by the core.
type Action enum.Member[string]

const editPrefix = "edit_"

var (
	ActionCreate    = Action{"create"}
	ActionMyCard    = Action{"myCard"}
	ActionEditCard  = Action{"editCard"}
	ActionShareCard = Action{"shareCard"}
	ActionBackMenu  = Action{"backMenu"}

	ActionEditName       = Action{editPrefix + card.FieldName.Key()}
	ActionEditSurname    = Action{editPrefix + card.FieldSurname.Key()}
	ActionEditLocation   = Action{editPrefix + card.FieldLocation.Key()}
	ActionEditPhone      = Action{editPrefix + card.FieldPhone.Key()}
	ActionEditInstagram  = Action{editPrefix + card.FieldInstagram.Key()}
	ActionEditProfession = Action{editPrefix + card.FieldProfession.Key()}

	Actions = enum.New(
		ActionCreate,
		ActionMyCard,
		ActionEditCard,
		ActionShareCard,
		ActionBackMenu,
		ActionEditName,
		ActionEditSurname,
		ActionEditLocation,
		ActionEditPhone,
		ActionEditInstagram,
		ActionEditProfession,
	)
)

// ParseAction resolves a raw action id. ok is false for ids outside the set.
func ParseAction(raw string) (Action, bool) {
	a := Actions.Parse(raw)
	if a == nil {
		return Action{}, false
	}
	return *a, true
}

// EditAction returns the action that starts editing f.
func EditAction(f card.Field) Action {
	return Action{editPrefix + f.Key()}
}

// EditField reports which field an edit_<field> action targets.
func (a Action) EditField() (card.Field, bool) {
	key, ok := strings.CutPrefix(a.Value, editPrefix)
	if !ok {
		return 0, false
	}
	return card.ParseField(key)
}

// String returns the raw action id.
func (a Action) String() string {
	return a.Value
}

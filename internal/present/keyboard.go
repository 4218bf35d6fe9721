package present

import (
	"fmt"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/card"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/chat"
)

// MainMenuKeyboard has one button per row: create, view.
func MainMenuKeyboard() chat.Keyboard {
	return chat.Keyboard{
		{{Label: "📝 Vizitka yaratish", Action: chat.ActionCreate.Value}},
		{{Label: "📇 Vizitkani ko'rish", Action: chat.ActionMyCard.Value}},
	}
}

// CardKeyboard lays out Instagram / edit+share / home in rows of 1, 2, 1.
func CardKeyboard(instagram string) chat.Keyboard {
	return chat.Keyboard{
		{{Label: "📸 Instagram", URL: InstagramURL(instagram)}},
		{
			{Label: "✏️ Tahrirlash", Action: chat.ActionEditCard.Value},
			{Label: "📤 Ulashish", Action: chat.ActionShareCard.Value},
		},
		{{Label: "🏠 Bosh menyu", Action: chat.ActionBackMenu.Value}},
	}
}

// EditKeyboard lists the six fields two per row, then a back button.
func EditKeyboard() chat.Keyboard {
	kb := chat.Keyboard{}
	var row []chat.Button
	for _, f := range card.Fields {
		row = append(row, chat.Button{Label: fieldLabel(f), Action: chat.EditAction(f).Value})
		if len(row) == 2 {
			kb = append(kb, row)
			row = nil
		}
	}
	return append(kb, []chat.Button{{Label: "🔙 Orqaga", Action: chat.ActionMyCard.Value}})
}

func fieldLabel(f card.Field) string {
	switch f {
	case card.FieldName:
		return "👤 Ism"
	case card.FieldSurname:
		return "👤 Familya"
	case card.FieldLocation:
		return "📍 Manzil"
	case card.FieldPhone:
		return "📱 Telefon"
	case card.FieldInstagram:
		return "📸 Instagram"
	case card.FieldProfession:
		return "💼 Kasb"
	}
	panic(fmt.Sprintf("present: unknown field %d", int(f)))
}

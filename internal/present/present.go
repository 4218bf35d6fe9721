// Package present renders cards, prompts and keyboards.
//
// Everything here is a pure function of its arguments. Text is produced in
// the Telegram HTML subset and every user-supplied value is escaped.
package present

import (
	"fmt"
	"html"
	"net/url"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/card"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/chat"
)

// MainText is the greeting shown with the main menu.
const MainText = "✨ <b>SMART VIZITKA BOT</b>\n\n" +
	"🚀 Professional raqamli vizitka yarating!\n" +
	"📇 Ma'lumotlaringizni bir marta kiriting va istalgan vaqt ulashing."

const (
	savedText         = "🎉 <b>Vizitka muvaffaqiyatli saqlandi!</b>"
	updatedText       = "✅ <b>Ma'lumot muvaffaqiyatli yangilandi!</b>"
	alreadyExistsText = "⚠️ Sizda allaqachon vizitka mavjud!\nTahrirlashni xohlaysizmi?"
	noCardText        = "❗ Sizda hali vizitka yo'q.\nYangi vizitka yarating!"
	createFirstText   = "❗ Avval vizitka yarating!"
	editMenuText      = "✏️ <b>Qaysi ma'lumotni tahrirlaysiz?</b>"
	failureText       = "⚠️ Xatolik yuz berdi. Iltimos, keyinroq qayta urinib ko'ring."
	createIntroText   = "📝 <b>Yangi vizitka yaratamiz!</b>\n\n"
)

// ordinals are the keycap digits used in the "k / 6" step counter.
var ordinals = []string{"0️⃣", "1️⃣", "2️⃣", "3️⃣", "4️⃣", "5️⃣", "6️⃣"}

// MainMenu is the home screen.
func MainMenu() chat.Reply {
	return chat.Screen(MainText, MainMenuKeyboard())
}

// Saved confirms a completed create flow.
func Saved() chat.Reply {
	return chat.Screen(savedText, MainMenuKeyboard())
}

// Updated confirms a completed edit.
func Updated() chat.Reply {
	return chat.Screen(updatedText, MainMenuKeyboard())
}

// AlreadyExists is shown instead of a create flow when a card exists.
func AlreadyExists() chat.Reply {
	return chat.Screen(alreadyExistsText, chat.Keyboard{
		{{Label: "✏️ Tahrirlash", Action: chat.ActionEditCard.Value}},
		{{Label: "🔙 Orqaga", Action: chat.ActionBackMenu.Value}},
	})
}

// NoCard is shown when viewing a card that does not exist.
func NoCard() chat.Reply {
	return chat.Screen(noCardText, chat.Keyboard{
		{{Label: "📝 Vizitka yaratish", Action: chat.ActionCreate.Value}},
		{{Label: "🔙 Orqaga", Action: chat.ActionBackMenu.Value}},
	})
}

// CreateFirst is the alert for share/edit without a card.
func CreateFirst() chat.Reply {
	return chat.Notice(createFirstText, true)
}

// Failure is the generic notice for infrastructure errors.
func Failure() chat.Reply {
	return chat.Notice(failureText, true)
}

// CreatePrompt asks for field f during the create flow.
func CreatePrompt(f card.Field) chat.Reply {
	text := fmt.Sprintf("%s / %s — %s", ordinals[f.Ordinal()], ordinals[len(card.Fields)], createQuestion(f))
	if f == card.First() {
		text = createIntroText + text
	}
	return chat.Screen(text, nil)
}

// EditPrompt asks for a new value of f.
func EditPrompt(f card.Field) chat.Reply {
	return chat.Screen("✏️ "+editQuestion(f), nil)
}

// Retry re-asks the current step after a validation failure.
func Retry(f card.Field, reason string) chat.Reply {
	if f == card.FieldPhone {
		return chat.Screen(fmt.Sprintf("❗ %s Qayta kiriting (masalan: +998901234567):", reason), nil)
	}
	return chat.Screen(fmt.Sprintf("❗ %s Qayta kiriting:", reason), nil)
}

// CardView shows the card with its action buttons.
func CardView(c card.Card) chat.Reply {
	return chat.Screen(FormatCard(c), CardKeyboard(c.Instagram))
}

// EditMenu lists the fields that can be edited.
func EditMenu() chat.Reply {
	return chat.Screen(editMenuText, EditKeyboard())
}

// Share shows the copyable plain-text card.
func Share(c card.Card) chat.Reply {
	text := "📤 <b>Vizitkangizni ulashing:</b>\n\n" +
		"Quyidagi matnni nusxalab do'stlaringizga yuboring 👇\n\n" +
		"<code>" + html.EscapeString(ShareText(c)) + "</code>"
	return chat.Screen(text, chat.Keyboard{
		{{Label: "🔙 Orqaga", Action: chat.ActionMyCard.Value}},
	})
}

// FormatCard renders the card for display.
func FormatCard(c card.Card) string {
	e := html.EscapeString
	return "╔══════════════════════╗\n" +
		"║   💎 SMART VIZITKA   ║\n" +
		"╚══════════════════════╝\n\n" +
		fmt.Sprintf("👤 <b>%s %s</b>\n", e(c.Name), e(c.Surname)) +
		fmt.Sprintf("💼 <i>%s</i>\n\n", e(c.Profession)) +
		"─────────────────────────\n" +
		fmt.Sprintf("📍 <b>Manzil:</b> %s\n", e(c.Location)) +
		fmt.Sprintf("📞 <b>Tel:</b> %s\n", e(c.Phone)) +
		fmt.Sprintf("📸 <b>Instagram:</b> @%s\n", e(c.Instagram)) +
		"─────────────────────────"
}

// ShareText is the unformatted card meant to be copied and forwarded.
func ShareText(c card.Card) string {
	return "💎 SMART VIZITKA\n\n" +
		fmt.Sprintf("👤 %s %s\n", c.Name, c.Surname) +
		fmt.Sprintf("💼 %s\n", c.Profession) +
		fmt.Sprintf("📍 %s\n", c.Location) +
		fmt.Sprintf("📞 %s\n", c.Phone) +
		fmt.Sprintf("📸 instagram.com/%s", c.Instagram)
}

// InstagramURL is the profile link for a handle.
func InstagramURL(handle string) string {
	return "https://instagram.com/" + url.PathEscape(handle)
}

func createQuestion(f card.Field) string {
	switch f {
	case card.FieldName:
		return "👤 Ismingizni kiriting:"
	case card.FieldSurname:
		return "👤 Familyangizni kiriting:"
	case card.FieldLocation:
		return "📍 Manzilingizni kiriting (shahar, mamlakat):"
	case card.FieldPhone:
		return "📱 Telefon raqamingizni kiriting (+998xxxxxxxxx):"
	case card.FieldInstagram:
		return "📸 Instagram username kiriting (@siz):"
	case card.FieldProfession:
		return "💼 Kasbingizni kiriting:"
	}
	panic(fmt.Sprintf("present: unknown field %d", int(f)))
}

func editQuestion(f card.Field) string {
	switch f {
	case card.FieldName:
		return "👤 Yangi ismingizni kiriting:"
	case card.FieldSurname:
		return "👤 Yangi familyangizni kiriting:"
	case card.FieldLocation:
		return "📍 Yangi manzilingizni kiriting:"
	case card.FieldPhone:
		return "📱 Yangi telefon raqamingizni kiriting:"
	case card.FieldInstagram:
		return "📸 Yangi Instagram username kiriting:"
	case card.FieldProfession:
		return "💼 Yangi kasbingizni kiriting:"
	}
	panic(fmt.Sprintf("present: unknown field %d", int(f)))
}

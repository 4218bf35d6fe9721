package testutil

import "github.com/csdeziycsdezy-ops/VirtualVizitka/internal/card"

// SampleInputs are the raw answers that produce SampleCard through the
// create flow, in field order.
var SampleInputs = []string{"Ali", "Valiyev", "Tashkent", "+998901234567", "@ali_v", "Engineer"}

// SampleCard returns the card stored after answering SampleInputs.
func SampleCard() card.Card {
	return card.Card{
		Name:       "Ali",
		Surname:    "Valiyev",
		Location:   "Tashkent",
		Phone:      "+998901234567",
		Instagram:  "ali_v",
		Profession: "Engineer",
	}
}

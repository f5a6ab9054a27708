package bot

import (
	"github.com/m3rciful/ipswbot/core/telegram/keyboard"
	"github.com/m3rciful/ipswbot/internal/catalog"
	"github.com/m3rciful/ipswbot/internal/ipsw"

	tele "gopkg.in/telebot.v4"
)

// deviceMenu lists every catalog device, one button per row, in catalog order.
func deviceMenu(cat *catalog.Catalog) *tele.ReplyMarkup {
	devices := cat.Devices()
	buttons := make([]keyboard.InlineBtn, 0, len(devices))
	for _, d := range devices {
		unique, payload := EncodeDeviceSelect(d.Name)
		buttons = append(buttons, keyboard.InlineBtn{
			Text:   d.Name,
			Unique: unique,
			Data:   payload,
		})
	}
	return keyboard.InlineButtons(buttons)
}

// versionTypeMenu offers the three firmware classes for a device plus the
// back transition.
func versionTypeMenu(device string) *tele.ReplyMarkup {
	rows := make([]keyboard.InlineBtn, 0, 4)
	for _, entry := range []struct {
		label string
		class ipsw.Class
	}{
		{"Current versions", ipsw.ClassSigned},
		{"Revoked versions", ipsw.ClassUnsigned},
		{"Beta / Developer versions", ipsw.ClassBeta},
	} {
		unique, payload := EncodeVersionList(entry.class, device)
		rows = append(rows, keyboard.InlineBtn{Text: entry.label, Unique: unique, Data: payload})
	}
	backUnique, backPayload := EncodeDeviceBack()
	rows = append(rows, keyboard.InlineBtn{Text: "Pick another device", Unique: backUnique, Data: backPayload})
	return keyboard.InlineButtons(rows)
}

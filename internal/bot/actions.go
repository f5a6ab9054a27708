// Package bot implements the interactive Telegram surface: device and
// version-type menus, firmware listings and the new-version notifier.
package bot

import (
	"fmt"
	"strings"

	"github.com/m3rciful/ipswbot/internal/ipsw"
)

// Callback uniques registered with telebot.
const (
	cbDeviceSelect = "device_select"
	cbVersionList  = "version_list"
	cbDeviceBack   = "device_back"
)

// ActionKind discriminates callback actions.
type ActionKind string

const (
	ActionDeviceSelect ActionKind = "device"
	ActionVersionList  ActionKind = "versions"
	ActionDeviceBack   ActionKind = "back"
)

// Action is a decoded callback. Only the fields relevant to Kind are set.
type Action struct {
	Kind   ActionKind
	Device string
	Class  ipsw.Class
}

// payloadSep separates fields inside callback payloads. Device names may
// contain spaces and parentheses but never this character.
const payloadSep = "|"

// EncodeDeviceSelect builds the payload for a device menu button.
func EncodeDeviceSelect(device string) (unique, payload string) {
	return cbDeviceSelect, device
}

// EncodeVersionList builds the payload for a version-type button.
func EncodeVersionList(class ipsw.Class, device string) (unique, payload string) {
	return cbVersionList, string(class) + payloadSep + device
}

// EncodeDeviceBack builds the payload for the back button.
func EncodeDeviceBack() (unique, payload string) {
	return cbDeviceBack, ""
}

// DecodeAction validates a callback unique+payload pair and returns the
// tagged action. Malformed input yields an error and the caller answers
// with the unsupported-action fallback.
func DecodeAction(unique, payload string) (Action, error) {
	switch unique {
	case cbDeviceSelect:
		device := strings.TrimSpace(payload)
		if device == "" {
			return Action{}, fmt.Errorf("device select: empty payload")
		}
		return Action{Kind: ActionDeviceSelect, Device: device}, nil

	case cbVersionList:
		parts := strings.SplitN(payload, payloadSep, 2)
		if len(parts) != 2 {
			return Action{}, fmt.Errorf("version list: malformed payload %q", payload)
		}
		class, ok := ipsw.ParseClass(parts[0])
		if !ok {
			return Action{}, fmt.Errorf("version list: unknown class %q", parts[0])
		}
		device := strings.TrimSpace(parts[1])
		if device == "" {
			return Action{}, fmt.Errorf("version list: empty device")
		}
		return Action{Kind: ActionVersionList, Device: device, Class: class}, nil

	case cbDeviceBack:
		return Action{Kind: ActionDeviceBack}, nil
	}
	return Action{}, fmt.Errorf("unknown action %q", unique)
}

package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"

	tg "github.com/m3rciful/ipswbot/core/telegram"
	"github.com/m3rciful/ipswbot/core/telegram/callbacks"
	"github.com/m3rciful/ipswbot/core/telegram/commands"
	"github.com/m3rciful/ipswbot/core/telegram/helpers"
	"github.com/m3rciful/ipswbot/core/telegram/state"
	"github.com/m3rciful/ipswbot/internal/catalog"
	"github.com/m3rciful/ipswbot/internal/ipsw"
	"github.com/m3rciful/ipswbot/internal/subscription"

	tele "gopkg.in/telebot.v4"
)

// Conversation steps.
const (
	stateAwaitingDevice      state.State = "awaiting_device"
	stateAwaitingVersionType state.State = "awaiting_version_type"
)

// listingLimit caps how many records a version-type listing presents.
const listingLimit = 5

// VersionSource is the subset of the firmware client the controller needs.
type VersionSource interface {
	Fetch(ctx context.Context, identifier string, class ipsw.Class) ([]ipsw.Firmware, error)
}

// Controller wires the interactive chat flow: device menu, version-type
// menu and firmware listings.
type Controller struct {
	Catalog *catalog.Catalog
	Subs    *subscription.Service
	Source  VersionSource
	States  state.Manager
}

// Register binds the controller's commands and callbacks.
func (h *Controller) Register(reg *tg.Registry) error {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.handleStart,
		Description: "Pick a device to watch",
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     h.handleStats,
		Description: "Subscription count",
		AdminOnly:   true,
		Hidden:      true,
	})

	for key, fn := range map[string]tele.HandlerFunc{
		cbDeviceSelect: h.handleCallback,
		cbVersionList:  h.handleCallback,
		cbDeviceBack:   h.handleCallback,
	} {
		if err := reg.RegisterCallback(key, fn); err != nil {
			return fmt.Errorf("register callback %s: %w", key, err)
		}
	}

	reg.SetTextFallback(h.handleText)
	return nil
}

func (h *Controller) handleStart(c tele.Context) error {
	h.States.SetState(c.Sender().ID, stateAwaitingDevice)
	return helpers.SendMD(c, "Hi! Pick a device:", deviceMenu(h.Catalog))
}

func (h *Controller) handleStats(c tele.Context) error {
	count, err := h.Subs.Count(helpers.BuildContext(c))
	if err != nil {
		return err
	}
	return helpers.SendMD(c, fmt.Sprintf("Subscriptions: %d", count))
}

// handleText nudges users who type instead of tapping a button.
func (h *Controller) handleText(c tele.Context) error {
	switch h.States.GetState(c.Sender().ID) {
	case stateAwaitingDevice:
		return helpers.SendMD(c, "Use the buttons to pick a device:", deviceMenu(h.Catalog))
	case stateAwaitingVersionType:
		return helpers.SendText(c, "Use the buttons above, or send /start to pick another device.")
	}
	return helpers.SendText(c, "Send /start to pick a device to watch.")
}

// handleCallback decodes the tagged action and dispatches. Malformed
// payloads fall through to the registry's unsupported-action answer.
func (h *Controller) handleCallback(c tele.Context) error {
	unique := callbacks.CallbackKey(c)
	payload := callbacks.CallbackPayload(c)

	action, err := DecodeAction(unique, payload)
	if err != nil {
		return helpers.SendText(c, "Unsupported action.")
	}

	switch action.Kind {
	case ActionDeviceSelect:
		return h.deviceSelected(c, action.Device)
	case ActionVersionList:
		return h.listVersions(c, action.Device, action.Class)
	case ActionDeviceBack:
		h.States.SetState(c.Sender().ID, stateAwaitingDevice)
		return helpers.EditOrSendMD(c, "Pick a device:", deviceMenu(h.Catalog))
	}
	return helpers.SendText(c, "Unsupported action.")
}

func (h *Controller) deviceSelected(c tele.Context, device string) error {
	if !h.Catalog.Contains(device) {
		// Stale button from an older catalog.
		return helpers.SendText(c, "Unsupported device. Send /start to see the current list.")
	}

	ctx := helpers.BuildContext(c)
	userID := strconv.FormatInt(c.Sender().ID, 10)
	if err := h.Subs.Select(ctx, userID, device); err != nil {
		replyFailure(c)
		return fmt.Errorf("select %s for %s: %w", device, userID, err)
	}

	h.States.SetState(c.Sender().ID, stateAwaitingVersionType)
	text := fmt.Sprintf("You picked %s. Choose a version type:", device)
	return helpers.EditOrSendMD(c, text, versionTypeMenu(device))
}

func (h *Controller) listVersions(c tele.Context, device string, class ipsw.Class) error {
	identifier, err := h.Catalog.Resolve(device)
	if err != nil {
		return helpers.SendText(c, "Unsupported device. Send /start to see the current list.")
	}

	ctx := helpers.BuildContext(c)
	records, err := h.Source.Fetch(ctx, identifier, class)
	if err != nil {
		if errors.Is(err, ipsw.ErrRemoteUnavailable) {
			return helpers.EditOrSendMD(c,
				"The firmware service is unavailable right now, try again later.",
				versionTypeMenu(device))
		}
		replyFailure(c)
		return fmt.Errorf("list %s/%s: %w", device, class, err)
	}

	h.States.SetState(c.Sender().ID, stateAwaitingVersionType)

	if len(records) == 0 {
		return helpers.EditOrSendMD(c,
			"No versions of this type for this device.",
			versionTypeMenu(device))
	}

	if len(records) > listingLimit {
		records = records[:listingLimit]
	}
	for _, fw := range records {
		card, err := renderVersionCard(class, fw.Version)
		if err != nil {
			replyFailure(c)
			return fmt.Errorf("list %s/%s: %w", device, class, err)
		}
		photo := &tele.Photo{
			File:    tele.FromReader(bytes.NewReader(card)),
			Caption: firmwareCaption(fw),
		}
		if err := helpers.SendPhoto(c, photo); err != nil {
			replyFailure(c)
			return fmt.Errorf("list %s/%s: %w", device, class, err)
		}
	}

	text := fmt.Sprintf("Shown %s versions for %s.", class, device)
	return helpers.EditOrSendMD(c, text, versionTypeMenu(device))
}

// replyFailure tells the user the action failed. The handler still returns
// the error so the router logs it; delivery of this message is best effort.
func replyFailure(c tele.Context) {
	_ = helpers.SendText(c, "Something went wrong, please try again.")
}

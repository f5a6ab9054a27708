package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/m3rciful/ipswbot/core/telegram/sender"
	"github.com/m3rciful/ipswbot/internal/ipsw"

	tele "gopkg.in/telebot.v4"
)

// TelegramNotifier pushes new-version cards to users outside any update
// context. It satisfies the watcher's Notifier interface.
type TelegramNotifier struct {
	Bot        *tele.Bot
	Dispatcher *sender.Dispatcher
}

// NotifyNewVersion renders the signed card for the firmware and sends it as
// a photo to the user's chat. Delivery goes through the async dispatcher
// when one is wired; a full or closed queue falls back to a direct send.
func (n *TelegramNotifier) NotifyNewVersion(ctx context.Context, userID, device string, fw ipsw.Firmware) error {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("notify %s: bad user id: %w", userID, err)
	}

	card, err := renderVersionCard(ipsw.ClassSigned, fw.Version)
	if err != nil {
		return fmt.Errorf("notify %s: %w", userID, err)
	}
	photo := &tele.Photo{
		File:    tele.FromReader(bytes.NewReader(card)),
		Caption: notificationCaption(device, fw),
	}
	recipient := &tele.User{ID: id}

	run := func() error {
		_, err := n.Bot.Send(recipient, photo)
		return err
	}

	if n.Dispatcher == nil {
		return run()
	}
	if err := n.Dispatcher.Enqueue(ctx, "notify.version", "sendPhoto", run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			return run()
		}
		return fmt.Errorf("notify %s: %w", userID, err)
	}
	return nil
}

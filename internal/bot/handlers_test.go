package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/m3rciful/ipswbot/core/telegram/state"
	"github.com/m3rciful/ipswbot/internal/catalog"
	"github.com/m3rciful/ipswbot/internal/ipsw"
	"github.com/m3rciful/ipswbot/internal/subscription"

	tele "gopkg.in/telebot.v4"
)

// fakeTeleContext implements the slice of tele.Context the handlers touch.
// Unimplemented methods panic through the embedded nil interface, which is
// exactly what a test should do if a handler starts calling something new.
type fakeTeleContext struct {
	tele.Context
	user *tele.User
	cb   *tele.Callback
	kv   map[string]any

	sent   []any
	edited []any
}

func newFakeContext(userID int64) *fakeTeleContext {
	return &fakeTeleContext{
		user: &tele.User{ID: userID},
		kv:   map[string]any{},
	}
}

func callbackContext(userID int64, unique, payload string) *fakeTeleContext {
	c := newFakeContext(userID)
	c.cb = &tele.Callback{Unique: unique, Data: unique + "|" + payload}
	return c
}

func (c *fakeTeleContext) Sender() *tele.User       { return c.user }
func (c *fakeTeleContext) Chat() *tele.Chat         { return &tele.Chat{ID: c.user.ID} }
func (c *fakeTeleContext) Update() tele.Update      { return tele.Update{} }
func (c *fakeTeleContext) Callback() *tele.Callback { return c.cb }
func (c *fakeTeleContext) Get(key string) any       { return c.kv[key] }
func (c *fakeTeleContext) Set(key string, v any)    { c.kv[key] = v }

func (c *fakeTeleContext) Send(what any, opts ...any) error {
	c.sent = append(c.sent, what)
	return nil
}

func (c *fakeTeleContext) EditOrSend(what any, opts ...any) error {
	c.edited = append(c.edited, what)
	return nil
}

// texts flattens everything shown to the user, sent or edited.
func (c *fakeTeleContext) texts() []string {
	var out []string
	for _, m := range append(append([]any{}, c.sent...), c.edited...) {
		if s, ok := m.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (c *fakeTeleContext) photoCount() int {
	n := 0
	for _, m := range c.sent {
		if _, ok := m.(*tele.Photo); ok {
			n++
		}
	}
	return n
}

func containsText(texts []string, substr string) bool {
	for _, s := range texts {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

type scriptedSource struct {
	records []ipsw.Firmware
	err     error
}

func (s *scriptedSource) Fetch(ctx context.Context, identifier string, class ipsw.Class) ([]ipsw.Firmware, error) {
	return s.records, s.err
}

type brokenStore struct{}

func (brokenStore) LoadAll(ctx context.Context) (map[string]subscription.Subscription, error) {
	return map[string]subscription.Subscription{}, nil
}

func (brokenStore) SaveAll(ctx context.Context, subs map[string]subscription.Subscription) error {
	return errors.New("disk full")
}

func newTestController(store subscription.Store, source VersionSource) *Controller {
	return &Controller{
		Catalog: catalog.Default(),
		Subs:    subscription.NewService(store),
		Source:  source,
		States:  state.NewMemoryManager(),
	}
}

func TestDeviceSelectWritesSubscription(t *testing.T) {
	store := subscription.NewMemoryStore(nil)
	h := newTestController(store, &scriptedSource{})
	c := callbackContext(42, cbDeviceSelect, "iPhone 15")

	if err := h.handleCallback(c); err != nil {
		t.Fatalf("callback: %v", err)
	}

	subs, _ := store.LoadAll(context.Background())
	if subs["42"].Device != "iPhone 15" || subs["42"].LastNotified != "" {
		t.Fatalf("subs[42] = %+v", subs["42"])
	}
	if got := h.States.GetState(42); got != stateAwaitingVersionType {
		t.Fatalf("state = %q", got)
	}
	if !containsText(c.texts(), "You picked iPhone 15") {
		t.Fatalf("texts = %v", c.texts())
	}
}

func TestDeviceSelectUnknownDevice(t *testing.T) {
	store := subscription.NewMemoryStore(nil)
	h := newTestController(store, &scriptedSource{})
	c := callbackContext(42, cbDeviceSelect, "Nokia 3310")

	if err := h.handleCallback(c); err != nil {
		t.Fatalf("callback: %v", err)
	}
	if !containsText(c.texts(), "Unsupported device") {
		t.Fatalf("texts = %v", c.texts())
	}
	subs, _ := store.LoadAll(context.Background())
	if len(subs) != 0 {
		t.Fatalf("unexpected store write: %+v", subs)
	}
}

func TestDeviceSelectStoreFailureStillAnswersUser(t *testing.T) {
	h := newTestController(brokenStore{}, &scriptedSource{})
	c := callbackContext(42, cbDeviceSelect, "iPhone 15")

	err := h.handleCallback(c)
	if err == nil {
		t.Fatal("expected store error")
	}
	if !containsText(c.texts(), "Something went wrong") {
		t.Fatalf("user got no failure message, texts = %v", c.texts())
	}
}

func TestListingShowsCappedCards(t *testing.T) {
	records := make([]ipsw.Firmware, 0, listingLimit+2)
	for i := 0; i < listingLimit+2; i++ {
		records = append(records, ipsw.Firmware{
			Version: fmt.Sprintf("18.0.%d", i), Signed: true,
			ReleaseDate: "unknown", Description: "no description",
		})
	}
	h := newTestController(subscription.NewMemoryStore(nil), &scriptedSource{records: records})
	c := callbackContext(42, cbVersionList, "signed|iPhone 15")

	if err := h.handleCallback(c); err != nil {
		t.Fatalf("callback: %v", err)
	}
	if got := c.photoCount(); got != listingLimit {
		t.Fatalf("photos = %d, want %d", got, listingLimit)
	}
	if !containsText(c.texts(), "Shown signed versions for iPhone 15") {
		t.Fatalf("texts = %v", c.texts())
	}
}

func TestEmptyListingKeepsVersionTypeState(t *testing.T) {
	h := newTestController(subscription.NewMemoryStore(nil), &scriptedSource{})
	c := callbackContext(42, cbVersionList, "beta|iPhone 15")

	if err := h.handleCallback(c); err != nil {
		t.Fatalf("callback: %v", err)
	}
	if !containsText(c.texts(), "No versions of this type") {
		t.Fatalf("texts = %v", c.texts())
	}
	if got := h.States.GetState(42); got != stateAwaitingVersionType {
		t.Fatalf("state = %q", got)
	}
}

func TestListingRemoteUnavailableFallback(t *testing.T) {
	source := &scriptedSource{err: fmt.Errorf("%w: status 502", ipsw.ErrRemoteUnavailable)}
	h := newTestController(subscription.NewMemoryStore(nil), source)
	c := callbackContext(42, cbVersionList, "signed|iPhone 15")

	if err := h.handleCallback(c); err != nil {
		t.Fatalf("remote outage must not surface as handler error: %v", err)
	}
	if !containsText(c.texts(), "unavailable right now") {
		t.Fatalf("texts = %v", c.texts())
	}
}

func TestBackReturnsToDeviceMenu(t *testing.T) {
	h := newTestController(subscription.NewMemoryStore(nil), &scriptedSource{})
	c := callbackContext(42, cbDeviceBack, "")
	h.States.SetState(42, stateAwaitingVersionType)

	if err := h.handleCallback(c); err != nil {
		t.Fatalf("callback: %v", err)
	}
	if got := h.States.GetState(42); got != stateAwaitingDevice {
		t.Fatalf("state = %q", got)
	}
	if !containsText(c.texts(), "Pick a device:") {
		t.Fatalf("texts = %v", c.texts())
	}
}

func TestMalformedCallbackAnswersUnsupported(t *testing.T) {
	h := newTestController(subscription.NewMemoryStore(nil), &scriptedSource{})
	c := callbackContext(42, cbVersionList, "nightly|iPhone 15")

	if err := h.handleCallback(c); err != nil {
		t.Fatalf("callback: %v", err)
	}
	if !containsText(c.texts(), "Unsupported action") {
		t.Fatalf("texts = %v", c.texts())
	}
}

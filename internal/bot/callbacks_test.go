package bot

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackDataRawEncoding(t *testing.T) {
	cb := &tele.Callback{Data: "\\fctry|48"}
	key, payload := ParseCallbackData(cb)
	if key != "ctry" || payload != "48" {
		t.Fatalf("got (%q, %q), want (ctry, 48)", key, payload)
	}
}

func TestParseCallbackDataPreSplit(t *testing.T) {
	// Telebot fills Unique and leaves the payload in Data.
	cb := &tele.Callback{Unique: "svc", Data: "tg"}
	key, payload := ParseCallbackData(cb)
	if key != "svc" || payload != "tg" {
		t.Fatalf("got (%q, %q), want (svc, tg)", key, payload)
	}
}

func TestParseCallbackDataNoPayload(t *testing.T) {
	cb := &tele.Callback{Data: "\\fmenu"}
	key, payload := ParseCallbackData(cb)
	if key != "menu" || payload != "" {
		t.Fatalf("got (%q, %q), want (menu, empty)", key, payload)
	}
}

func TestParseCallbackDataNil(t *testing.T) {
	key, payload := ParseCallbackData(nil)
	if key != "" || payload != "" {
		t.Fatalf("nil callback must parse to empty strings")
	}
}

func TestRegistryDispatch(t *testing.T) {
	reg := NewRegistry()
	called := false
	reg.RegisterCallback("balance", func(c tele.Context) error {
		called = true
		return nil
	})

	h, ok := reg.GetCallback("balance")
	if !ok {
		t.Fatalf("registered callback not found")
	}
	if err := h(nil); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("handler not invoked")
	}

	if _, ok := reg.GetCallback("nope"); ok {
		t.Fatalf("unknown key must not resolve")
	}
}

package keyringstore

import (
	"testing"

	"github.com/zalando/go-keyring"

	"fieldsurvey/pkg/auth"
)

func TestNewRequiresServiceName(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty service name")
	}
}

func TestSaveLoadDeleteRoundTrip(t *testing.T) {
	keyring.MockInit()

	store, err := New("fieldsurvey-test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}

	want := auth.Credentials{
		Authenticated: true,
		Username:      "rep",
		BranchKey:     7,
		Expiration:    "2026-12-31",
		Token:         "tok-rep",
	}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := store.Load()
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}

	if err := store.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := store.Load(); ok {
		t.Fatal("record must be gone after delete")
	}

	// Deleting an absent record is not an error.
	if err := store.Delete(); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}

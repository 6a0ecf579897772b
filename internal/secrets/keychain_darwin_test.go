//go:build darwin

package secrets

import (
	"errors"
	"testing"
)

const testServiceName = "kyr-test-secretstore"

func TestKeychainStore_SetGetDelete(t *testing.T) {
	store := &KeychainStore{}
	account := "test-account"
	_ = store.Delete(testServiceName, account)
	t.Cleanup(func() { _ = store.Delete(testServiceName, account) })

	if err := store.Set(testServiceName, account, "first"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	// Overwrite takes the update path.
	if err := store.Set(testServiceName, account, "second"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}

	got, err := store.Get(testServiceName, account)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "second" {
		t.Errorf("Get() = %q, want %q", got, "second")
	}

	if err := store.Delete(testServiceName, account); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if _, err := store.Get(testServiceName, account); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
}

func TestKeychainStore_DeleteMissing(t *testing.T) {
	store := &KeychainStore{}
	if err := store.Delete(testServiceName, "never-set"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

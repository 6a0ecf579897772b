//go:build darwin

package secrets

import (
	"errors"

	"github.com/keybase/go-keychain"
)

func init() {
	store = &KeychainStore{}
}

// KeychainStore implements SecretStore on the macOS Keychain using generic
// password items.
type KeychainStore struct{}

func genericItem(service, account string) keychain.Item {
	item := keychain.NewItem()
	item.SetSecClass(keychain.SecClassGenericPassword)
	item.SetService(service)
	item.SetAccount(account)
	return item
}

func (k *KeychainStore) Get(service, account string) (string, error) {
	query := genericItem(service, account)
	query.SetMatchLimit(keychain.MatchLimitOne)
	query.SetReturnData(true)

	results, err := keychain.QueryItem(query)
	switch {
	case errors.Is(err, keychain.ErrorItemNotFound):
		return "", ErrNotFound
	case err != nil:
		return "", err
	case len(results) == 0:
		return "", ErrNotFound
	}
	return string(results[0].Data), nil
}

func (k *KeychainStore) Set(service, account, password string) error {
	item := genericItem(service, account)
	item.SetLabel(service + " API token")
	item.SetData([]byte(password))
	item.SetSynchronizable(keychain.SynchronizableNo)
	item.SetAccessible(keychain.AccessibleWhenUnlocked)

	err := keychain.AddItem(item)
	if errors.Is(err, keychain.ErrorDuplicateItem) {
		update := keychain.NewItem()
		update.SetData([]byte(password))
		return keychain.UpdateItem(genericItem(service, account), update)
	}
	return err
}

func (k *KeychainStore) Delete(service, account string) error {
	err := keychain.DeleteItem(genericItem(service, account))
	if errors.Is(err, keychain.ErrorItemNotFound) {
		return ErrNotFound
	}
	return err
}

func (k *KeychainStore) IsSupported() bool {
	return true
}

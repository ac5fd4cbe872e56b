package credential

import (
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "habitlog"

// tokenKey is the keyring entry holding the remote provider's OAuth
// access token, obtained by the (out-of-core) sign-in flow.
const tokenKey = "remote-access-token"

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/habitlog/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("habitlog-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Token retrieves the stored remote access token. A missing token is
// an error; callers treat it as "not signed in".
func Token() (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(tokenKey)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", tokenKey, err)
	}

	return string(item.Data), nil
}

// SetToken stores the remote access token in the system keyring.
func SetToken(value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:  tokenKey,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", tokenKey, err)
	}

	return nil
}

// DeleteToken removes the stored remote access token.
func DeleteToken() error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(tokenKey)
	if err != nil {
		return fmt.Errorf("deleting credential %q: %w", tokenKey, err)
	}

	return nil
}

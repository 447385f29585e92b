// Package auth provides a high-level API for persisting and retrieving
// per-vendor session tokens from the system keyring.
package auth

import (
	"github.com/zalando/go-keyring"
)

const service = "scenevault"

// SetToken persists a vendor's session token to the system keyring.
func SetToken(vendor, token string) error {
	return keyring.Set(service, vendor, token)
}

// Token retrieves a vendor's session token from the system keyring.
func Token(vendor string) (string, error) {
	return keyring.Get(service, vendor)
}

// DeleteToken removes a vendor's session token from the system keyring.
func DeleteToken(vendor string) error {
	return keyring.Delete(service, vendor)
}

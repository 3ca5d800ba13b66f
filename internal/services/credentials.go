package services

import (
	"fmt"

	"github.com/devsync/teamchat-api/internal/models"
)

// TokenCipher is implemented by *credential.Cipher.
type TokenCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertextHex string) (string, error)
}

// Credentials hands out decrypted provider tokens.
type Credentials struct {
	cipher TokenCipher
}

func NewCredentials(cipher TokenCipher) *Credentials {
	return &Credentials{cipher: cipher}
}

// TokenFor decrypts user's token. It fails with ErrCredentialMissing when
// none is stored and ErrCredentialUnreadable when decryption fails.
func (c *Credentials) TokenFor(user *models.User) (string, error) {
	if !user.HasCredential() {
		return "", fmt.Errorf("user %d: %w", user.ID, ErrCredentialMissing)
	}
	token, err := c.cipher.Decrypt(user.GithubToken)
	if err != nil {
		return "", fmt.Errorf("user %d: %w: %v", user.ID, ErrCredentialUnreadable, err)
	}
	return token, nil
}

// Seal encrypts a plaintext token for storage.
func (c *Credentials) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	sealed, err := c.cipher.Encrypt(plaintext)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt token: %w", err)
	}
	return sealed, nil
}

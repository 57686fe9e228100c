// Package crypto scrambles payload bytes before they are packed into bits
package crypto

import (
	"fmt"
)

const MaxKeyLength = 256

// Cipher is applied to the payload before bit packing and reversed after unpacking
type Cipher interface {
	Encrypt(plaintext []byte) []byte
	Decrypt(ciphertext []byte) []byte
}

type passthrough struct{}

func (passthrough) Encrypt(b []byte) []byte { return b }
func (passthrough) Decrypt(b []byte) []byte { return b }

// ForKey returns an extended Vigenère cipher for key, or a passthrough when key is empty
func ForKey(key string) (Cipher, error) {
	if key == "" {
		return passthrough{}, nil
	}
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	return NewExtendedVigenere(key), nil
}

type ExtendedVigenere struct {
	key []byte
}

func NewExtendedVigenere(key string) *ExtendedVigenere {
	return &ExtendedVigenere{
		key: []byte(key),
	}
}

// Encrypt shifts every byte by the matching key byte, (P + K) mod 256
func (ev *ExtendedVigenere) Encrypt(plaintext []byte) []byte {
	return ev.shift(plaintext, 1)
}

// Decrypt reverses Encrypt, (C - K) mod 256
func (ev *ExtendedVigenere) Decrypt(ciphertext []byte) []byte {
	return ev.shift(ciphertext, -1)
}

func (ev *ExtendedVigenere) shift(in []byte, sign int) []byte {
	if len(ev.key) == 0 {
		return in
	}
	out := make([]byte, len(in))
	for i, c := range in {
		k := int(ev.key[i%len(ev.key)])
		out[i] = byte((int(c) + sign*k + 256) % 256)
	}
	return out
}

// ValidateKey validates if the key is suitable for Extended Vigenère
func ValidateKey(key string) error {
	if len(key) == 0 {
		return fmt.Errorf("key cannot be empty")
	}
	if len(key) > MaxKeyLength {
		return fmt.Errorf("key length cannot exceed %d characters", MaxKeyLength)
	}
	return nil
}

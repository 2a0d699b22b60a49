// Package tron содержит кодирование адресов сети TRON.
//
// Адрес в сети: 21 байт: префикс 0x41 и 20 байт хэша ключа.
// Текстовая форма: base58check с тем же префиксом в роли версии.
package tron

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// AddressPrefix байт-префикс адресов основной сети.
const AddressPrefix byte = 0x41

// AddressLen длина адреса без префикса.
const AddressLen = 20

// ErrInvalidAddress возвращается при некорректном адресе.
var ErrInvalidAddress = errors.New("invalid tron address")

// EncodeAddress кодирует 20 байт адреса в base58check.
func EncodeAddress(raw []byte) (string, error) {
	if len(raw) != AddressLen {
		return "", fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidAddress, AddressLen, len(raw))
	}
	return base58.CheckEncode(raw, AddressPrefix), nil
}

// EncodeHexAddress принимает адрес в hex, с префиксом 41 или без него.
func EncodeHexAddress(s string) (string, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	if len(raw) == AddressLen+1 {
		if raw[0] != AddressPrefix {
			return "", fmt.Errorf("%w: unexpected prefix %#x", ErrInvalidAddress, raw[0])
		}
		raw = raw[1:]
	}
	return EncodeAddress(raw)
}

// DecodeAddress разбирает base58check-адрес и возвращает 20 байт без префикса.
func DecodeAddress(addr string) ([]byte, error) {
	raw, version, err := base58.CheckDecode(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	if version != AddressPrefix || len(raw) != AddressLen {
		return nil, ErrInvalidAddress
	}
	return raw, nil
}

// ValidateAddress проверяет, что строка: корректный адрес.
func ValidateAddress(addr string) error {
	_, err := DecodeAddress(addr)
	return err
}

package wallet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"unicode"

	"github.com/99designs/keyring"
	"github.com/ethereum/go-ethereum/crypto"
)

const keychainService = "trexctl"

// EnvKeyPrefix + upper-cased role name overrides the keychain, e.g. TREXCTL_KEY_TOKENISSUER.
const EnvKeyPrefix = "TREXCTL_KEY_"

// ErrKeyNotFound is returned when no key is stored for a role.
var ErrKeyNotFound = errors.New("key not found")

// ErrInvalidKey is returned for keys that do not parse as secp256k1 private keys.
var ErrInvalidKey = errors.New("invalid private key")

// KeystoreBackend stores hex private keys by role name.
type KeystoreBackend interface {
	Store(role, hexKey string) error
	Retrieve(role string) (string, error)
	Delete(role string) error
	List() ([]string, error)
}

// Keystore wraps OS keychain access.
type Keystore struct {
	ring keyring.Keyring
}

// DefaultKeystore returns a keystore backed by the OS keychain. dir hosts the
// encrypted file fallback used on headless Linux.
func DefaultKeystore(dir string) *Keystore {
	cfg := keyring.Config{
		ServiceName:              keychainService,
		KeychainTrustApplication: true,
		FileDir:                  filepath.Join(dir, "keys"),
		FilePasswordFunc:         filePassword,
	}

	// On Linux without a GUI, fall back to file-based storage.
	if runtime.GOOS == "linux" {
		cfg.AllowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.FileBackend,
		}
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
		ring, _ = keyring.Open(cfg)
	}
	return NewKeystore(ring)
}

// NewKeystore wraps an already opened keyring.
func NewKeystore(ring keyring.Keyring) *Keystore {
	return &Keystore{ring: ring}
}

func filePassword(prompt string) (string, error) {
	if pw := os.Getenv("TREXCTL_KEYRING_PASSWORD"); pw != "" {
		return pw, nil
	}
	return keyring.TerminalPrompt(prompt)
}

// Store validates and saves a private key for role.
func (k *Keystore) Store(role, hexKey string) error {
	key, err := ValidateKey(hexKey)
	if err != nil {
		return err
	}
	if k.ring == nil {
		return fmt.Errorf("keystore not available")
	}
	if err := k.ring.Set(keyring.Item{Key: itemKey(role), Data: []byte(key), Label: "trexctl " + role}); err != nil {
		return fmt.Errorf("keychain store: %w", err)
	}
	return nil
}

// Retrieve returns the key for role. The TREXCTL_KEY_<ROLE> env var wins over
// the keychain.
func (k *Keystore) Retrieve(role string) (string, error) {
	if v := os.Getenv(EnvKeyName(role)); v != "" {
		return normaliseHexKey(v), nil
	}
	if k.ring == nil {
		return "", fmt.Errorf("%s: %w (keystore not available)", role, ErrKeyNotFound)
	}
	item, err := k.ring.Get(itemKey(role))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("%s: %w", role, ErrKeyNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("keychain retrieve: %w", err)
	}
	return string(item.Data), nil
}

// Delete removes a stored key.
func (k *Keystore) Delete(role string) error {
	if k.ring == nil {
		return nil
	}
	if err := k.ring.Remove(itemKey(role)); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("keychain remove: %w", err)
	}
	return nil
}

// List returns the roles with a stored key, sorted.
func (k *Keystore) List() ([]string, error) {
	if k.ring == nil {
		return nil, nil
	}
	keys, err := k.ring.Keys()
	if err != nil {
		return nil, fmt.Errorf("keychain list: %w", err)
	}
	var roles []string
	for _, key := range keys {
		if role, ok := strings.CutPrefix(key, keychainService+"."); ok {
			roles = append(roles, role)
		}
	}
	sort.Strings(roles)
	return roles, nil
}

// InMemoryKeystore stores keys in memory (for tests).
type InMemoryKeystore struct {
	data map[string]string
}

// NewInMemoryKeystore creates an in-memory keystore.
func NewInMemoryKeystore() *InMemoryKeystore {
	return &InMemoryKeystore{data: make(map[string]string)}
}

func (k *InMemoryKeystore) Store(role, hexKey string) error {
	key, err := ValidateKey(hexKey)
	if err != nil {
		return err
	}
	k.data[role] = key
	return nil
}

func (k *InMemoryKeystore) Retrieve(role string) (string, error) {
	v, ok := k.data[role]
	if !ok {
		return "", fmt.Errorf("%s: %w", role, ErrKeyNotFound)
	}
	return v, nil
}

func (k *InMemoryKeystore) Delete(role string) error {
	delete(k.data, role)
	return nil
}

func (k *InMemoryKeystore) List() ([]string, error) {
	roles := make([]string, 0, len(k.data))
	for r := range k.data {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return roles, nil
}

// ValidateKey normalises a hex private key and checks it parses.
func ValidateKey(hexKey string) (string, error) {
	key := normaliseHexKey(hexKey)
	if _, err := crypto.HexToECDSA(key); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return key, nil
}

// EnvKeyName returns the env var consulted for role ("tokenIssuer" -> TREXCTL_KEY_TOKENISSUER).
func EnvKeyName(role string) string {
	return EnvKeyPrefix + strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
		return '_'
	}, role)
}

func itemKey(role string) string { return keychainService + "." + role }

func normaliseHexKey(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	return s
}

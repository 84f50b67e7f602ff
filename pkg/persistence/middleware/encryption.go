package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/canvass/pkg/domain"
	"github.com/aretw0/canvass/pkg/ports"
)

// EnvelopeMarker is the pseudo question ID carrying the ciphertext in a stored envelope.
const EnvelopeMarker = "__encrypted__"

// ErrNotEncrypted is returned when an encrypted store finds a plain state.
var ErrNotEncrypted = errors.New("state is missing encrypted data envelope")

// EncryptionConfig lists the AES-256 keys of an encrypted store.
type EncryptionConfig struct {
	// ActiveKey seals every save. 32 bytes.
	ActiveKey []byte

	// FallbackKeys open sessions sealed before a rotation, tried after ActiveKey.
	FallbackKeys [][]byte
}

// ParseKey decodes a 32 byte key given as hex (64 chars) or standard base64.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if b, err := hex.DecodeString(s); err == nil && len(b) == 32 {
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil && len(b) == 32 {
		return b, nil
	}
	return nil, errors.New("encryption key must be 32 bytes, hex or base64 encoded")
}

// keyring holds one AEAD per key; index 0 is the active one.
type keyring []cipher.AEAD

func newKeyring(cfg EncryptionConfig) (keyring, error) {
	if len(cfg.ActiveKey) != 32 {
		return nil, errors.New("active key must be 32 bytes (AES-256)")
	}
	ring := make(keyring, 0, 1+len(cfg.FallbackKeys))
	for i, k := range append([][]byte{cfg.ActiveKey}, cfg.FallbackKeys...) {
		aead, err := newAEAD(k)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		ring = append(ring, aead)
	}
	return ring, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// seal returns nonce||ciphertext under the active key.
func (r keyring) seal(plain []byte) ([]byte, error) {
	aead := r[0]
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plain, nil), nil
}

// open tries every key in order.
func (r keyring) open(sealed []byte) ([]byte, error) {
	for _, aead := range r {
		n := aead.NonceSize()
		if len(sealed) < n {
			return nil, errors.New("sealed state is truncated")
		}
		if plain, err := aead.Open(nil, sealed[:n], sealed[n:], nil); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("no configured key opens this session")
}

type encryptionMiddleware struct {
	next ports.SessionStore
	keys keyring
}

// NewEncryptionMiddleware creates a middleware that encrypts session state using AES-GCM.
// The stored envelope keeps the key, status, version and timestamps readable for
// listing and monitoring; the cursor and every answer and skip are sealed.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	keys, err := newKeyring(config)
	if err != nil {
		panic(err.Error())
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &encryptionMiddleware{next: next, keys: keys}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, key domain.SessionKey, state *domain.SessionState) error {
	plain, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", key, err)
	}
	box, err := m.keys.seal(plain)
	if err != nil {
		return fmt.Errorf("seal session %s: %w", key, err)
	}

	return m.next.Save(ctx, key, &domain.SessionState{
		SurveyID:  state.SurveyID,
		SessionID: state.SessionID,
		Status:    state.Status,
		Version:   state.Version,
		CreatedAt: state.CreatedAt,
		UpdatedAt: state.UpdatedAt,
		Answers: []domain.Answer{{
			QuestionID: EnvelopeMarker,
			Values:     []string{base64.StdEncoding.EncodeToString(box)},
		}},
		Skipped:   []string{},
		Presented: []string{},
	})
}

func (m *encryptionMiddleware) Load(ctx context.Context, key domain.SessionKey) (*domain.SessionState, error) {
	envelope, err := m.next.Load(ctx, key)
	if err != nil {
		return nil, err
	}

	encoded, ok := sealed(envelope)
	if !ok {
		// With a key configured, a plain session is never trusted.
		return nil, ErrNotEncrypted
	}
	box, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("session %s: malformed envelope: %w", key, err)
	}
	plain, err := m.keys.open(box)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", key, err)
	}

	state := new(domain.SessionState)
	if err := json.Unmarshal(plain, state); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", key, err)
	}
	return state, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, key domain.SessionKey) error {
	return m.next.Delete(ctx, key)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]domain.SessionKey, error) {
	return m.next.List(ctx)
}

func sealed(envelope *domain.SessionState) (string, bool) {
	if len(envelope.Answers) != 1 {
		return "", false
	}
	a := envelope.Answers[0]
	if a.QuestionID != EnvelopeMarker || len(a.Values) != 1 {
		return "", false
	}
	return a.Values[0], true
}

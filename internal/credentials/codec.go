package credentials

import (
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/grantshandy/starify/internal/shared"
)

// Payload envelope versions, stored as the first byte of every row.
const (
	envelopePlain  byte = 0x01
	envelopeSealed byte = 0x02
)

// codec turns records into stored payloads and back.
//
// With a nil aead payloads are written plain; sealed payloads found later still fail as corrupt
// because they cannot be opened without the key.
type codec struct {
	enc  cbor.EncMode
	dec  cbor.DecMode
	aead cipher.AEAD
}

// newCodec builds a codec. key must be empty or exactly [chacha20poly1305.KeySize] bytes.
func newCodec(key []byte) (*codec, error) {
	enc, err := cbor.EncOptions{
		Sort: cbor.SortCoreDeterministic,
		Time: cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to build cbor encoder: %w", err)
	}

	dec, err := cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("failed to build cbor decoder: %w", err)
	}

	c := &codec{enc: enc, dec: dec}
	if len(key) == 0 {
		return c, nil
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("%w: store encryption key: %v", shared.ErrInvalidConfig, err)
	}
	c.aead = aead
	return c, nil
}

// marshal encodes v and wraps it in an envelope bound to userID.
func (c *codec) marshal(userID string, v any) ([]byte, error) {
	body, err := c.enc.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload for %s: %w", userID, err)
	}

	if c.aead == nil {
		return append([]byte{envelopePlain}, body...), nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// [version][nonce][ciphertext]
	out := make([]byte, 0, 1+len(nonce)+len(body)+c.aead.Overhead())
	out = append(out, envelopeSealed)
	out = append(out, nonce...)
	return c.aead.Seal(out, nonce, body, []byte(userID)), nil
}

// unmarshal opens an envelope written by marshal for userID and decodes it into v.
// Every failure wraps [shared.ErrCacheCorrupt].
func (c *codec) unmarshal(userID string, payload []byte, v any) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: empty payload for %s", shared.ErrCacheCorrupt, userID)
	}

	body := payload[1:]
	switch payload[0] {
	case envelopePlain:
	case envelopeSealed:
		if c.aead == nil {
			return fmt.Errorf("%w: sealed payload for %s but no encryption key configured", shared.ErrCacheCorrupt, userID)
		}
		n := c.aead.NonceSize()
		if len(body) < n+c.aead.Overhead() {
			return fmt.Errorf("%w: sealed payload for %s too short", shared.ErrCacheCorrupt, userID)
		}
		opened, err := c.aead.Open(nil, body[:n], body[n:], []byte(userID))
		if err != nil {
			return fmt.Errorf("%w: failed to open payload for %s: %v", shared.ErrCacheCorrupt, userID, err)
		}
		body = opened
	default:
		return fmt.Errorf("%w: unknown envelope version %#x for %s", shared.ErrCacheCorrupt, payload[0], userID)
	}

	if err := c.dec.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: failed to decode payload for %s: %v", shared.ErrCacheCorrupt, userID, err)
	}
	return nil
}

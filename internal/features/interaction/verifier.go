package interaction

import (
	"crypto/ed25519"
	"encoding/hex"
	"io"
	"net/http"

	"discord-giveaway-bot/internal/common/errors"
)

const (
	HeaderSignature = "X-Signature-Ed25519"
	HeaderTimestamp = "X-Signature-Timestamp"

	DefaultMaxBodyBytes = 1 << 20
)

// Verifier authenticates inbound webhook calls with the application public key.
type Verifier struct {
	publicKey    ed25519.PublicKey
	maxBodyBytes int64
}

func NewVerifier(publicKey ed25519.PublicKey) *Verifier {
	return &Verifier{publicKey: publicKey, maxBodyBytes: DefaultMaxBodyBytes}
}

// Verify reads the body once and checks the signature over timestamp||body.
// The returned bytes are the exact bytes that were verified.
func (v *Verifier) Verify(r *http.Request) ([]byte, error) {
	if r.Method != http.MethodPost {
		return nil, errors.New(errors.ErrCodeMethodNotAllowed, "Method not allowed").
			WithDetail("method", r.Method)
	}

	signature := r.Header.Get(HeaderSignature)
	timestamp := r.Header.Get(HeaderTimestamp)
	if signature == "" || timestamp == "" {
		return nil, errors.New(errors.ErrCodeMissingHeaders, "Missing signature headers")
	}

	sig, err := hex.DecodeString(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return nil, errors.New(errors.ErrCodeInvalidSignature, "Invalid request signature")
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, v.maxBodyBytes+1))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "Failed to read request body")
	}
	if int64(len(body)) > v.maxBodyBytes {
		return nil, errors.New(errors.ErrCodeBadRequest, "Request body too large")
	}

	message := make([]byte, 0, len(timestamp)+len(body))
	message = append(message, timestamp...)
	message = append(message, body...)
	if !ed25519.Verify(v.publicKey, message, sig) {
		return nil, errors.New(errors.ErrCodeInvalidSignature, "Invalid request signature")
	}
	return body, nil
}

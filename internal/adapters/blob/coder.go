package blob

import (
	"encoding/base64"
	"fmt"

	"eventhub/internal/domain"
)

// Base64 encodes image bytes as standard padded base64.
type Base64 struct{}

var _ domain.Coder = Base64{}

func (Base64) Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Decode rejects empty input and malformed base64 with domain.ErrInvalidInput.
func (Base64) Decode(text string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty image", domain.ErrInvalidInput)
	}
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: image is not valid base64: %w", domain.ErrInvalidInput, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", domain.ErrInvalidInput)
	}
	return data, nil
}

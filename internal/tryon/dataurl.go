package tryon

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrNotDataURL is returned when a string is not a base64 data URL.
var ErrNotDataURL = errors.New("not a base64 data URL")

// DataURL is a decoded `data:<mime>;base64,<payload>` string.
type DataURL struct {
	MimeType string
	Data     []byte
}

// ParseDataURL decodes a base64 data URL.
func ParseDataURL(s string) (*DataURL, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, ErrNotDataURL
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, ErrNotDataURL
	}
	mimeType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return nil, ErrNotDataURL
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data URL payload: %w", err)
	}
	return &DataURL{MimeType: mimeType, Data: data}, nil
}

// EncodeDataURL renders data as a base64 data URL.
func EncodeDataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

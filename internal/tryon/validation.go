package tryon

import (
	"errors"
	"strings"
)

// DefaultMaxImageBytes is the default ceiling for the estimated decoded image size.
const DefaultMaxImageBytes int64 = 5 * 1024 * 1024

// ImageDataPrefix marks an inline image payload.
const ImageDataPrefix = "data:image/"

// Validation failure reasons, in the order they are checked.
const (
	ReasonBodyRequired    = "Request body is required"
	ReasonImageRequired   = "Image data is required"
	ReasonGarmentRequired = "Garment selection is required"
	ReasonFabricRequired  = "Fabric selection is required"
	ReasonColorRequired   = "Color selection is required"
	ReasonInvalidFormat   = "Invalid image format"
	ReasonImageTooLarge   = "Image size too large"
)

// ValidationError reports why a request was rejected.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// IsValidationError reports whether err is, or wraps, a *ValidationError.
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// Validate checks req and returns the first failure as a *ValidationError.
// maxImageBytes <= 0 selects DefaultMaxImageBytes.
func Validate(req *Request, maxImageBytes int64) error {
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}

	switch {
	case req == nil:
		return &ValidationError{Reason: ReasonBodyRequired}
	case req.Image == "":
		return &ValidationError{Reason: ReasonImageRequired}
	case req.Garment == "":
		return &ValidationError{Reason: ReasonGarmentRequired}
	case req.Fabric == "":
		return &ValidationError{Reason: ReasonFabricRequired}
	case req.Color == "":
		return &ValidationError{Reason: ReasonColorRequired}
	case !strings.HasPrefix(req.Image, ImageDataPrefix):
		return &ValidationError{Reason: ReasonInvalidFormat}
	case EstimateDecodedSize(req.Image) > float64(maxImageBytes):
		return &ValidationError{Reason: ReasonImageTooLarge}
	}
	return nil
}

// EstimateDecodedSize approximates the decoded byte size of a base64 payload
// from its encoded length. It over-counts by the data URL header.
func EstimateDecodedSize(encoded string) float64 {
	return float64(len(encoded)) * 0.75
}

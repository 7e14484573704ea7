package tryon

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func validRequest() *Request {
	return &Request{
		Image:   "data:image/png;base64,AAAA",
		Garment: GarmentDress,
		Fabric:  FabricSilk,
		Color:   "Gold",
		Size:    SizeM,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Request) *Request
		max    int64
		reason string
	}{
		{
			name:   "valid request",
			mutate: func(r *Request) *Request { return r },
		},
		{
			name:   "size is optional",
			mutate: func(r *Request) *Request { r.Size = ""; return r },
		},
		{
			name:   "nil payload",
			mutate: func(r *Request) *Request { return nil },
			reason: ReasonBodyRequired,
		},
		{
			name:   "missing image",
			mutate: func(r *Request) *Request { r.Image = ""; return r },
			reason: ReasonImageRequired,
		},
		{
			name:   "missing garment",
			mutate: func(r *Request) *Request { r.Garment = ""; return r },
			reason: ReasonGarmentRequired,
		},
		{
			name:   "missing fabric",
			mutate: func(r *Request) *Request { r.Fabric = ""; return r },
			reason: ReasonFabricRequired,
		},
		{
			name:   "missing color",
			mutate: func(r *Request) *Request { r.Color = ""; return r },
			reason: ReasonColorRequired,
		},
		{
			name:   "missing fields report the first one checked",
			mutate: func(r *Request) *Request { r.Fabric = ""; r.Color = ""; r.Garment = ""; return r },
			reason: ReasonGarmentRequired,
		},
		{
			name:   "image without data prefix",
			mutate: func(r *Request) *Request { r.Image = "iVBORw0KGgo="; return r },
			reason: ReasonInvalidFormat,
		},
		{
			name:   "non-image data url",
			mutate: func(r *Request) *Request { r.Image = "data:text/plain;base64,AAAA"; return r },
			reason: ReasonInvalidFormat,
		},
		{
			name: "oversized image",
			mutate: func(r *Request) *Request {
				r.Image = ImageDataPrefix + "png;base64," + strings.Repeat("A", 200)
				return r
			},
			max:    100,
			reason: ReasonImageTooLarge,
		},
		{
			name: "image exactly at the ceiling",
			mutate: func(r *Request) *Request {
				r.Image = ImageDataPrefix + strings.Repeat("A", 400-len(ImageDataPrefix))
				return r
			},
			max: 300,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.mutate(validRequest()), tt.max)
			if tt.reason == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
			}
			if vErr.Reason != tt.reason {
				t.Fatalf("got reason %q, want %q", vErr.Reason, tt.reason)
			}
		})
	}
}

func TestValidateDefaultCeiling(t *testing.T) {
	req := validRequest()
	// 7 MiB of encoded text estimates to 5.25 MiB decoded.
	req.Image = ImageDataPrefix + "jpeg;base64," + strings.Repeat("A", 7*1024*1024)

	err := Validate(req, 0)
	if err == nil || err.Error() != ReasonImageTooLarge {
		t.Fatalf("expected %q, got %v", ReasonImageTooLarge, err)
	}
}

func TestIsValidationError(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", &ValidationError{Reason: ReasonColorRequired})
	if !IsValidationError(wrapped) {
		t.Fatal("expected wrapped validation error to be detected")
	}
	if IsValidationError(errors.New("other")) {
		t.Fatal("plain errors are not validation errors")
	}
}

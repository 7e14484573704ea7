package tryon

import "time"

// Service identity reported by the capability probe.
const (
	ServiceName    = "AI Try-On API"
	ServiceVersion = "1.0.0"
	OutputFormat   = "image/jpeg"
)

// SupportedFormats lists the image types the kiosk sends.
func SupportedFormats() []string {
	return []string{"image/jpeg", "image/png", "image/webp"}
}

// SuccessResponse is the 200 body of POST /api/ai-tryon.
type SuccessResponse struct {
	Success bool         `json:"success"`
	Data    ResponseData `json:"data"`
}

// ResponseData carries the generated image and its metadata.
type ResponseData struct {
	RequestID      string           `json:"requestId"`
	ProcessedImage string           `json:"processedImage"`
	OriginalImage  string           `json:"originalImage"`
	Metadata       ResponseMetadata `json:"metadata"`
	GarmentConfig  GarmentConfig    `json:"garmentConfig"`
}

// ResponseMetadata describes how the result was produced.
type ResponseMetadata struct {
	ProcessingTime int64     `json:"processingTime"`
	Confidence     float64   `json:"confidence"`
	ModelVersion   string    `json:"modelVersion"`
	Timestamp      time.Time `json:"timestamp"`
}

// ErrorResponse is returned for every non-2xx status. Message and
// Timestamp are only set for internal errors.
type ErrorResponse struct {
	Error     string     `json:"error"`
	Message   string     `json:"message,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Capabilities is the body of GET /api/ai-tryon.
type Capabilities struct {
	Status       string          `json:"status"`
	Service      string          `json:"service"`
	Version      string          `json:"version"`
	Capabilities CapabilityLimit `json:"capabilities"`
	Timestamp    time.Time       `json:"timestamp"`
}

// CapabilityLimit lists the configured limits and the selectable catalog.
type CapabilityLimit struct {
	MaxImageSize     int64     `json:"maxImageSize"`
	SupportedFormats []string  `json:"supportedFormats"`
	OutputFormat     string    `json:"outputFormat"`
	Garments         []Garment `json:"garments"`
	Fabrics          []Fabric  `json:"fabrics"`
	Sizes            []Size    `json:"sizes"`
	Colors           []Color   `json:"colors"`
}

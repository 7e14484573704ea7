package tryon

// Request is the payload accepted by the try-on endpoint.
type Request struct {
	Image   string  `json:"image"`
	Garment Garment `json:"garment"`
	Fabric  Fabric  `json:"fabric"`
	Color   string  `json:"color"`
	Size    Size    `json:"size,omitempty"`
}

// Config returns the garment selection carried by the request.
func (r *Request) Config() GarmentConfig {
	return GarmentConfig{
		Garment: r.Garment,
		Fabric:  r.Fabric,
		Color:   r.Color,
		Size:    r.Size,
	}
}

// GarmentConfig is the user's garment selection, echoed back with results.
type GarmentConfig struct {
	Garment Garment `json:"garment"`
	Fabric  Fabric  `json:"fabric"`
	Color   string  `json:"color"`
	Size    Size    `json:"size"`
}

// Complete reports whether garment, fabric and color have been chosen.
func (c GarmentConfig) Complete() bool {
	return c.Garment != "" && c.Fabric != "" && c.Color != ""
}

// Package tryon holds the try-on domain: the request contract, its
// validation, the result shape and the generators that produce results.
package tryon

// Garment identifies a garment template.
type Garment string

const (
	GarmentDress  Garment = "dress"
	GarmentBlouse Garment = "blouse"
	GarmentPants  Garment = "pants"
	GarmentSkirt  Garment = "skirt"
)

// Fabric identifies a fabric option.
type Fabric string

const (
	FabricCotton Fabric = "cotton"
	FabricSilk   Fabric = "silk"
	FabricLinen  Fabric = "linen"
	FabricWool   Fabric = "wool"
	FabricDenim  Fabric = "denim"
	FabricVelvet Fabric = "velvet"
)

// Size is a garment size label.
type Size string

const (
	SizeXS  Size = "XS"
	SizeS   Size = "S"
	SizeM   Size = "M"
	SizeL   Size = "L"
	SizeXL  Size = "XL"
	Size2XL Size = "2XL"
)

// Garments lists the garments offered by the kiosk, in display order.
func Garments() []Garment {
	return []Garment{GarmentDress, GarmentBlouse, GarmentPants, GarmentSkirt}
}

// Fabrics lists the fabrics offered by the kiosk, in display order.
func Fabrics() []Fabric {
	return []Fabric{FabricCotton, FabricSilk, FabricLinen, FabricWool, FabricDenim, FabricVelvet}
}

// Sizes lists the size labels offered by the kiosk.
func Sizes() []Size {
	return []Size{SizeXS, SizeS, SizeM, SizeL, SizeXL, Size2XL}
}

// Color is a named swatch shown on the kiosk.
type Color struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

// Colors lists the swatches offered by the kiosk. Requests may still carry
// any non-empty color name.
func Colors() []Color {
	return []Color{
		{Name: "Black", Hex: "#000000"},
		{Name: "White", Hex: "#FFFFFF"},
		{Name: "Gold", Hex: "#D4AF37"},
		{Name: "Brown", Hex: "#8B4513"},
		{Name: "Navy", Hex: "#000080"},
		{Name: "Burgundy", Hex: "#800020"},
		{Name: "Forest", Hex: "#228B22"},
		{Name: "Rose", Hex: "#FF69B4"},
	}
}

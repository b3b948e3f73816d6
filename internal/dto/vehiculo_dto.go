package dto

type CrearVehiculoRequest struct {
	Brand        string   `json:"brand" validate:"required"`
	Mobile       string   `json:"mobile" validate:"required"`
	LicensePlate string   `json:"licensePlate" validate:"required"`
	Type         string   `json:"type,omitempty"`
	Tires        []string `json:"tires,omitempty" validate:"dive,uuid"`
}

// ActualizarVehiculoRequest reemplaza el set de cubiertas del vehículo.
// Las cubiertas que salen del set quedan sin vehículo asignado.
type ActualizarVehiculoRequest struct {
	Tires []string `json:"tires" validate:"required,dive,uuid"`
}

type VehiculoResponse struct {
	ID           string             `json:"id"`
	Brand        string             `json:"brand"`
	Mobile       string             `json:"mobile"`
	LicensePlate string             `json:"licensePlate"`
	Type         string             `json:"type,omitempty"`
	Cubiertas    []CubiertaResponse `json:"cubiertas"`
	CreatedAt    string             `json:"createdAt"`
}

// OrdenDTO — respuestas del módulo de órdenes y recibos.

type OrdenCheckResponse struct {
	Exists bool `json:"exists"`
}

type ProximaOrdenResponse struct {
	OrderNumber string `json:"orderNumber"`
}

type ReciboResponse struct {
	ReceiptNumber string `json:"receiptNumber"`
}

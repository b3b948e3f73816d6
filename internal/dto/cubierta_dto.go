package dto

// CrearCubiertaRequest crea una cubierta nueva. CreatedAt permite retrofechar
// el alta (carga de cubiertas que ya estaban en servicio).
type CrearCubiertaRequest struct {
	Status       string  `json:"status" validate:"required"`
	Code         int     `json:"code" validate:"required"`
	Brand        string  `json:"brand" validate:"required"`
	Pattern      string  `json:"pattern" validate:"required"`
	SerialNumber string  `json:"serialNumber" validate:"required"`
	Kilometers   int     `json:"kilometers" validate:"min=0"`
	Vehicle      *string `json:"vehicle,omitempty"`
	CreatedAt    *string `json:"createdAt,omitempty"`
	OrderNumber  string  `json:"orderNumber,omitempty"`
}

type AsignarVehiculoRequest struct {
	Vehicle     string `json:"vehicle" validate:"required,uuid"`
	KmAlta      *int   `json:"kmAlta" validate:"required,min=0"`
	OrderNumber string `json:"orderNumber,omitempty"`
}

type DesasignarVehiculoRequest struct {
	KmBaja      *int   `json:"kmBaja" validate:"required,min=0"`
	OrderNumber string `json:"orderNumber,omitempty"`
}

type CambiarEstadoRequest struct {
	Status      string `json:"status" validate:"required"`
	OrderNumber string `json:"orderNumber,omitempty"`
}

// CorregirDatosRequest corrige campos de identidad (no afectan el recálculo).
type CorregirDatosRequest struct {
	SerialNumber string  `json:"serialNumber,omitempty"`
	Code         *int    `json:"code,omitempty"`
	Brand        string  `json:"brand,omitempty"`
	Pattern      string  `json:"pattern,omitempty"`
	Reason       string  `json:"reason" validate:"required"`
	Date         *string `json:"date,omitempty"`
	OrderNumber  string  `json:"orderNumber,omitempty"`
}

// VehiculoResumen is the embedded vehicle view inside tire/history responses.
type VehiculoResumen struct {
	ID           string `json:"id"`
	Brand        string `json:"brand"`
	Mobile       string `json:"mobile"`
	LicensePlate string `json:"licensePlate"`
	Type         string `json:"type,omitempty"`
}

type CubiertaResponse struct {
	ID           string           `json:"id"`
	Code         int              `json:"code"`
	Brand        string           `json:"brand"`
	Pattern      string           `json:"pattern"`
	SerialNumber string           `json:"serialNumber"`
	Status       string           `json:"status"`
	Kilometers   int              `json:"kilometers"`
	Vehiculo     *VehiculoResumen `json:"vehiculo,omitempty"`
	CreatedAt    string           `json:"createdAt"`
}

type DesasignarResponse struct {
	Cubierta     *CubiertaResponse `json:"cubierta"`
	KmAlta       int               `json:"kmAlta"`
	KmBaja       int               `json:"kmBaja"`
	KmRecorridos int               `json:"kmRecorridos"`
}

type CambioEstadoResponse struct {
	Cubierta       *CubiertaResponse `json:"cubierta"`
	PreviousStatus string            `json:"previousStatus"`
}

// FieldChange registra el antes/después de un campo corregido.
type FieldChange struct {
	Before interface{} `json:"before"`
	After  interface{} `json:"after"`
}

type CorreccionDatosResponse struct {
	Cubierta     *CubiertaResponse      `json:"cubierta"`
	PreviousData map[string]interface{} `json:"previousData"`
	EditedFields []string               `json:"editedFields"`
	FieldChanges map[string]FieldChange `json:"fieldChanges"`
}

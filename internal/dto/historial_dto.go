package dto

// CorregirHistorialRequest corrige una entrada puntual del historial.
// Solo kmAlta/kmBaja/status/vehicle participan de la detección de cambios;
// orderNumber identifica la orden que ampara la corrección.
type CorregirHistorialRequest struct {
	KmAlta      *int    `json:"kmAlta,omitempty"`
	KmBaja      *int    `json:"kmBaja,omitempty"`
	Status      *string `json:"status,omitempty"`
	Vehicle     *string `json:"vehicle,omitempty"`
	Reason      string  `json:"reason,omitempty"`
	OrderNumber string  `json:"orderNumber" validate:"required"`
}

type DeshacerHistorialRequest struct {
	OrderNumber string `json:"orderNumber" validate:"required"`
	Reason      string `json:"reason,omitempty"`
}

// HistorialItem is one history entry as returned to clients. Superseded
// entries are included (flag=true) so the audit trail stays visible.
type HistorialItem struct {
	ID            string           `json:"id"`
	CubiertaID    string           `json:"cubierta_id"`
	Date          string           `json:"date"`
	Tipo          string           `json:"type"`
	KmAlta        *int             `json:"kmAlta,omitempty"`
	KmBaja        *int             `json:"kmBaja,omitempty"`
	Km            *int             `json:"km,omitempty"`
	Status        string           `json:"status,omitempty"`
	Vehiculo      *VehiculoResumen `json:"vehiculo,omitempty"`
	OrderNumber   string           `json:"orderNumber,omitempty"`
	ReceiptNumber string           `json:"receiptNumber"`
	EditedFields  []string         `json:"editedFields,omitempty"`
	Reason        string           `json:"reason,omitempty"`
	Flag          bool             `json:"flag"`
	Corrects      *string          `json:"corrects,omitempty"`
	CorrectedAt   *string          `json:"correctedAt,omitempty"`
}

type HistorialListResponse struct {
	Data  []HistorialItem `json:"data"`
	Total int             `json:"total"`
}

type CorreccionHistorialResponse struct {
	Cubierta     *CubiertaResponse      `json:"cubierta"`
	EditedFields []string               `json:"editedFields"`
	FieldChanges map[string]FieldChange `json:"fieldChanges"`
}

type DeshacerHistorialResponse struct {
	Cubierta         *CubiertaResponse `json:"cubierta"`
	NewEntry         *HistorialItem    `json:"newEntry"`
	CorrectedEntryID string            `json:"correctedEntryId"`
	RevertedTo       string            `json:"revertedTo"`
}

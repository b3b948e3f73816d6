package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tipos de entrada de historial. Son contrato de datos: los valores (con
// mayúscula y tilde) deben coincidir exactamente con lo ya persistido.
const (
	TipoAlta                    = "Alta"
	TipoAsignacion              = "Asignación"
	TipoDesasignacion           = "Desasignación"
	TipoEstado                  = "Estado"
	TipoCorreccionAlta          = "Corrección-Alta"
	TipoCorreccionAsignacion    = "Corrección-Asignación"
	TipoCorreccionDesasignacion = "Corrección-Desasignación"
	TipoCorreccionEstado        = "Corrección-Estado"
	TipoCorreccionOtro          = "Corrección-Otro"
)

const correccionPrefix = "Corrección-"

// TiposHistorial is the closed set of valid entry types.
var TiposHistorial = []string{
	TipoAlta,
	TipoAsignacion,
	TipoDesasignacion,
	TipoEstado,
	TipoCorreccionAlta,
	TipoCorreccionAsignacion,
	TipoCorreccionDesasignacion,
	TipoCorreccionEstado,
	TipoCorreccionOtro,
}

// ACorreccion maps an entry type to its correction variant.
// Already-correction types are returned unchanged; empty or unknown base
// types fall back to Corrección-Otro only when empty.
func ACorreccion(tipo string) string {
	if tipo == "" {
		return TipoCorreccionOtro
	}
	if strings.HasPrefix(tipo, correccionPrefix) {
		return tipo
	}
	return correccionPrefix + tipo
}

// EsAsignacion reports whether the entry type semantically assigns a vehicle.
func EsAsignacion(tipo string) bool {
	return tipo == TipoAsignacion || tipo == TipoCorreccionAsignacion
}

// EsDesasignacion reports whether the entry type semantically releases a vehicle.
func EsDesasignacion(tipo string) bool {
	return tipo == TipoDesasignacion || tipo == TipoCorreccionDesasignacion
}

// EsEstado reports whether the entry type carries a status change.
func EsEstado(tipo string) bool {
	return tipo == TipoEstado || tipo == TipoCorreccionEstado
}

// EsAlta reports whether the entry type is a creation record.
func EsAlta(tipo string) bool {
	return tipo == TipoAlta || tipo == TipoCorreccionAlta
}

// ReciboPorDefecto is the placeholder receipt number for entries created
// without an emitted receipt.
const ReciboPorDefecto = "0000-00000000"

// Historial es una entrada del historial de una cubierta. La colección es
// append-only: una corrección o un deshacer nunca borra la entrada original,
// solo la marca (Flag, Reason, EditedFields, CorrectedAt) y agrega una entrada
// nueva que la referencia vía Corrects.
type Historial struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CubiertaID uuid.UUID `gorm:"type:uuid;not null;index" json:"cubierta_id"`
	Date       time.Time `gorm:"not null;index" json:"date"`
	Tipo       string    `gorm:"not null" json:"type"`

	// Kilometrajes: kmAlta/kmBaja son lecturas de odómetro al asignar y
	// desasignar; Km es la distancia recorrida resultante. Punteros porque
	// "ausente" y "cero" significan cosas distintas para el recálculo.
	KmAlta *int `json:"kmAlta,omitempty"`
	KmBaja *int `json:"kmBaja,omitempty"`
	Km     *int `json:"km,omitempty"`

	Status     string     `json:"status,omitempty"`
	VehiculoID *uuid.UUID `gorm:"type:uuid;index" json:"vehicle,omitempty"`

	OrderNumber   string `json:"orderNumber,omitempty"`
	ReceiptNumber string `gorm:"default:'0000-00000000'" json:"receiptNumber"`

	// Bookkeeping de correcciones — los únicos campos mutables de una entrada.
	EditedFields []string `gorm:"serializer:json" json:"editedFields,omitempty"`
	Reason       string       `json:"reason,omitempty"`
	Flag         bool         `gorm:"not null;default:false" json:"flag"`
	CorrectedAt  *time.Time   `json:"correctedAt,omitempty"`

	// Corrects referencia la entrada que esta corrige o deshace. Siempre
	// apunta a una entrada de fecha anterior, nunca forma ciclos.
	Corrects *uuid.UUID `gorm:"type:uuid;index" json:"corrects,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Vehiculo *Vehiculo `gorm:"foreignKey:VehiculoID" json:"vehiculo,omitempty"`
}

// TableName overrides GORM's default pluralization.
func (Historial) TableName() string { return "historiales" }

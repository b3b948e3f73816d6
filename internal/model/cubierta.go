package model

import (
	"time"

	"github.com/google/uuid"
)

// Estados posibles de una cubierta. Contrato de datos: los valores deben
// coincidir con lo persistido por versiones anteriores del sistema.
const (
	EstadoNueva      = "Nueva"
	EstadoRecapado1  = "1er Recapado"
	EstadoRecapado2  = "2do Recapado"
	EstadoRecapado3  = "3er Recapado"
	EstadoARecapar   = "A recapar"
	EstadoDescartada = "Descartada"
)

// EstadosCubierta is the closed status enumeration.
var EstadosCubierta = []string{
	EstadoNueva,
	EstadoRecapado1,
	EstadoRecapado2,
	EstadoRecapado3,
	EstadoARecapar,
	EstadoDescartada,
}

// EstadoValido reports whether s belongs to the status enumeration.
func EstadoValido(s string) bool {
	for _, e := range EstadosCubierta {
		if e == s {
			return true
		}
	}
	return false
}

// Cubierta es la proyección desnormalizada de una cubierta: Status, VehiculoID
// y Kilometers son caché del resultado del recálculo sobre su historial y se
// reescriben después de cada append. Mutarlos por fuera del recálculo es un bug.
type Cubierta struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code         int       `gorm:"not null;uniqueIndex" json:"code"`
	Brand        string    `gorm:"not null" json:"brand"`
	Pattern      string    `gorm:"not null" json:"pattern"`
	SerialNumber string    `gorm:"not null" json:"serialNumber"`

	Status     string     `gorm:"not null" json:"status"`
	Kilometers int        `gorm:"not null;default:0" json:"kilometers"`
	VehiculoID *uuid.UUID `gorm:"type:uuid;index" json:"vehicle,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Vehiculo *Vehiculo `gorm:"foreignKey:VehiculoID" json:"vehiculo,omitempty"`
}

// TableName overrides GORM's default pluralization.
func (Cubierta) TableName() string { return "cubiertas" }

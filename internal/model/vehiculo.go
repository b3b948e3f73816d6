package model

import (
	"time"

	"github.com/google/uuid"
)

// Vehiculo es un vehículo de la flota. Su lista de cubiertas asignadas es un
// índice derivado: la fuente de verdad es el campo VehiculoID de cada
// cubierta, y el índice puede reconstruirse recorriendo las cubiertas.
type Vehiculo struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Brand        string    `gorm:"not null" json:"brand"`
	Mobile       string    `gorm:"not null;uniqueIndex" json:"mobile"`
	LicensePlate string    `gorm:"not null;uniqueIndex" json:"licensePlate"`
	Type         string    `json:"type,omitempty"`

	// TireIDs es el índice desnormalizado de cubiertas asignadas (espejo del
	// campo VehiculoID de cada cubierta). Se mantiene en cada asignación y lo
	// reconstruye el worker de reparación cuando diverge.
	TireIDs []string `gorm:"serializer:json" json:"tires"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Cubiertas []Cubierta `gorm:"foreignKey:VehiculoID" json:"cubiertas,omitempty"`
}

// TableName overrides GORM's default pluralization (vehiculoes → vehiculos).
func (Vehiculo) TableName() string { return "vehiculos" }

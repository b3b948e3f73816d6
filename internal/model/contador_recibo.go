package model

// ContadorRecibo lleva la numeración de recibos por punto de venta.
// CurrentNumber se incrementa atómicamente al emitir cada recibo.
type ContadorRecibo struct {
	ID            uint `gorm:"primaryKey" json:"-"`
	PointOfSale   int  `gorm:"not null;uniqueIndex;default:1" json:"pointOfSale"`
	CurrentNumber int  `gorm:"not null;default:0" json:"currentNumber"`
}

// TableName overrides GORM's default pluralization.
func (ContadorRecibo) TableName() string { return "contadores_recibo" }

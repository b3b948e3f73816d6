package service

import (
	"time"

	"gorm.io/gorm"

	"github.com/Lunatico0/ControlCubiertas-Backend/internal/dto"
	"github.com/Lunatico0/ControlCubiertas-Backend/internal/model"
	"github.com/Lunatico0/ControlCubiertas-Backend/internal/recalc"
	"github.com/Lunatico0/ControlCubiertas-Backend/internal/repository"
)

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.Transaction(fn)
}

// refrescarProyeccion re-runs the reducer over the tire's full history and
// overwrites the denormalized projection. Must be called inside the same
// transaction (and per-tire lock) as the append that triggered it.
//
// Kilometers = kilometraje inicial del Alta vigente + deltas de asignación
// acumulados por el fold. El Alta no suma dentro del fold.
func refrescarProyeccion(tx *gorm.DB, historialRepo repository.HistorialRepository, cubiertaRepo repository.CubiertaRepository, cubierta *model.Cubierta) error {
	historial, err := historialRepo.ListByCubiertaTx(tx, cubierta.ID)
	if err != nil {
		return err
	}

	st := recalc.Reducir(historial)

	base := 0
	for _, h := range recalc.Validas(historial) {
		if model.EsAlta(h.Tipo) && h.Km != nil {
			base = *h.Km
			break
		}
	}

	cubierta.VehiculoID = st.VehiculoID
	cubierta.Vehiculo = nil // la asociación se recarga al leer
	cubierta.Kilometers = base + st.Kilometers
	if st.Status != "" {
		cubierta.Status = st.Status
	}
	return cubiertaRepo.UpdateTx(tx, cubierta)
}

// ultimaAsignacionValida returns the most recent non-superseded assignment
// entry strictly before the given date, or nil.
func ultimaAsignacionValida(historial []model.Historial, antesDe time.Time) *model.Historial {
	validas := recalc.Validas(historial)
	for i := len(validas) - 1; i >= 0; i-- {
		if validas[i].Date.Before(antesDe) && model.EsAsignacion(validas[i].Tipo) {
			return &validas[i]
		}
	}
	return nil
}

// ── DTO mapping ──────────────────────────────────────────────────────────────

func vehiculoToResumen(v *model.Vehiculo) *dto.VehiculoResumen {
	if v == nil {
		return nil
	}
	return &dto.VehiculoResumen{
		ID:           v.ID.String(),
		Brand:        v.Brand,
		Mobile:       v.Mobile,
		LicensePlate: v.LicensePlate,
		Type:         v.Type,
	}
}

func cubiertaToResponse(c *model.Cubierta) *dto.CubiertaResponse {
	return &dto.CubiertaResponse{
		ID:           c.ID.String(),
		Code:         c.Code,
		Brand:        c.Brand,
		Pattern:      c.Pattern,
		SerialNumber: c.SerialNumber,
		Status:       c.Status,
		Kilometers:   c.Kilometers,
		Vehiculo:     vehiculoToResumen(c.Vehiculo),
		CreatedAt:    c.CreatedAt.Format(time.RFC3339),
	}
}

func historialToItem(h *model.Historial) *dto.HistorialItem {
	item := &dto.HistorialItem{
		ID:            h.ID.String(),
		CubiertaID:    h.CubiertaID.String(),
		Date:          h.Date.Format(time.RFC3339),
		Tipo:          h.Tipo,
		KmAlta:        h.KmAlta,
		KmBaja:        h.KmBaja,
		Km:            h.Km,
		Status:        h.Status,
		Vehiculo:      vehiculoToResumen(h.Vehiculo),
		OrderNumber:   h.OrderNumber,
		ReceiptNumber: h.ReceiptNumber,
		EditedFields:  h.EditedFields,
		Reason:        h.Reason,
		Flag:          h.Flag,
	}
	if h.Corrects != nil {
		s := h.Corrects.String()
		item.Corrects = &s
	}
	if h.CorrectedAt != nil {
		s := h.CorrectedAt.Format(time.RFC3339)
		item.CorrectedAt = &s
	}
	return item
}

func vehiculoToResponse(v *model.Vehiculo) *dto.VehiculoResponse {
	cubiertas := make([]dto.CubiertaResponse, 0, len(v.Cubiertas))
	for i := range v.Cubiertas {
		cubiertas = append(cubiertas, *cubiertaToResponse(&v.Cubiertas[i]))
	}
	return &dto.VehiculoResponse{
		ID:           v.ID.String(),
		Brand:        v.Brand,
		Mobile:       v.Mobile,
		LicensePlate: v.LicensePlate,
		Type:         v.Type,
		Cubiertas:    cubiertas,
		CreatedAt:    v.CreatedAt.Format(time.RFC3339),
	}
}

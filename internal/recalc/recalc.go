// Package recalc deriva el estado actual de una cubierta a partir de su
// historial. Es un fold puro: nunca muta el historial ni toca la base de
// datos; los servicios lo re-ejecutan después de cada append para refrescar
// la proyección de la cubierta.
package recalc

import (
	"sort"

	"github.com/google/uuid"

	"github.com/Lunatico0/ControlCubiertas-Backend/internal/model"
)

// Estado is the reducer output: the denormalized fields of a tire as derived
// from its correction-filtered history.
type Estado struct {
	VehiculoID   *uuid.UUID
	Status       string
	Kilometers   int
	UltimaKmAlta int
}

// Excluidas returns the set of entry ids that must not participate in the
// fold: every entry referenced by another entry's Corrects (the superseded
// originals), plus any flagged entry that carries no Corrects reference of
// its own (an original marked as corrected whose replacement never landed —
// should not happen in a consistent store, but is tolerated).
func Excluidas(historial []model.Historial) map[uuid.UUID]bool {
	excluidas := make(map[uuid.UUID]bool)
	for _, h := range historial {
		if h.Corrects != nil {
			excluidas[*h.Corrects] = true
		}
	}
	for _, h := range historial {
		if h.Flag && h.Corrects == nil {
			excluidas[h.ID] = true
		}
	}
	return excluidas
}

// Validas returns the entries that participate in the fold, ordered by Date
// ascending. The sort is stable: entries sharing a Date keep their incoming
// (insertion) order.
func Validas(historial []model.Historial) []model.Historial {
	excluidas := Excluidas(historial)

	validas := make([]model.Historial, 0, len(historial))
	for _, h := range historial {
		if !excluidas[h.ID] {
			validas = append(validas, h)
		}
	}
	sort.SliceStable(validas, func(i, j int) bool {
		return validas[i].Date.Before(validas[j].Date)
	})
	return validas
}

// Reducir folds the valid entries in chronological order and returns the
// resulting state.
//
// Semántica por tipo:
//   - Alta / Corrección-Alta y Estado / Corrección-Estado: fijan el estado si
//     la entrada lo trae. El kilometraje inicial de un Alta NO suma al total.
//   - Asignación / Corrección-Asignación: fijan el vehículo actual y recuerdan
//     kmAlta como última lectura de asignación.
//   - Desasignación / Corrección-Desasignación: liberan el vehículo y suman
//     kmBaja - kmAlta al total cuando el delta es positivo. Deltas negativos o
//     incompletos se ignoran en silencio: el replay tiene que tolerar datos
//     históricos defectuosos (la validación estricta vive en el camino de
//     escritura, no acá).
//   - Tipos desconocidos: no-op.
func Reducir(historial []model.Historial) Estado {
	var st Estado

	for _, entrada := range Validas(historial) {
		switch {
		case model.EsAlta(entrada.Tipo), model.EsEstado(entrada.Tipo):
			if entrada.Status != "" {
				st.Status = entrada.Status
			}

		case model.EsAsignacion(entrada.Tipo):
			st.VehiculoID = entrada.VehiculoID
			if entrada.KmAlta != nil {
				st.UltimaKmAlta = *entrada.KmAlta
			}

		case model.EsDesasignacion(entrada.Tipo):
			st.VehiculoID = nil
			kmAlta := st.UltimaKmAlta
			if entrada.KmAlta != nil {
				kmAlta = *entrada.KmAlta
			}
			kmBaja := 0
			if entrada.KmBaja != nil {
				kmBaja = *entrada.KmBaja
			}
			if delta := kmBaja - kmAlta; delta > 0 {
				st.Kilometers += delta
			}
		}
	}

	return st
}

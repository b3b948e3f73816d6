package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Lunatico0/ControlCubiertas-Backend/internal/dto"
	"github.com/Lunatico0/ControlCubiertas-Backend/internal/model"
	"github.com/Lunatico0/ControlCubiertas-Backend/internal/recalc"
	"github.com/Lunatico0/ControlCubiertas-Backend/internal/repository"
)

// HistorialService implementa el protocolo de corrección y deshacer sobre el
// historial de una cubierta. Ninguna de las dos operaciones borra entradas:
// la entrada objetivo se marca como superada (flag, reason, editedFields,
// correctedAt, tipo→variante corrección) y se agrega una entrada nueva que la
// referencia vía corrects. El recálculo posterior excluye a la superada.
type HistorialService interface {
	Listar(ctx context.Context, cubiertaID uuid.UUID) (*dto.HistorialListResponse, error)
	Corregir(ctx context.Context, cubiertaID, historialID uuid.UUID, req dto.CorregirHistorialRequest) (*dto.CorreccionHistorialResponse, error)
	Deshacer(ctx context.Context, cubiertaID, historialID uuid.UUID, req dto.DeshacerHistorialRequest) (*dto.DeshacerHistorialResponse, error)
}

type historialService struct {
	repo         repository.HistorialRepository
	cubiertaRepo repository.CubiertaRepository
	locks        *CubiertaLocks
	rdb          *redis.Client
}

func NewHistorialService(
	repo repository.HistorialRepository,
	cubiertaRepo repository.CubiertaRepository,
	locks *CubiertaLocks,
	rdb *redis.Client,
) HistorialService {
	return &historialService{repo: repo, cubiertaRepo: cubiertaRepo, locks: locks, rdb: rdb}
}

func (s *historialService) invalidarCache(ctx context.Context, cubiertaID uuid.UUID) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, "cubierta:"+cubiertaID.String()).Err(); err != nil {
		log.Warn().Err(err).Str("cubierta_id", cubiertaID.String()).Msg("no se pudo invalidar la cache de cubierta")
	}
}

func (s *historialService) Listar(ctx context.Context, cubiertaID uuid.UUID) (*dto.HistorialListResponse, error) {
	if _, err := s.cubiertaRepo.FindByID(ctx, cubiertaID); err != nil {
		return nil, notFoundOr(err, "Cubierta no encontrada")
	}
	historial, err := s.repo.ListByCubierta(ctx, cubiertaID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.HistorialItem, 0, len(historial))
	for i := range historial {
		items = append(items, *historialToItem(&historial[i]))
	}
	return &dto.HistorialListResponse{Data: items, Total: len(items)}, nil
}

// ── Corregir ─────────────────────────────────────────────────────────────────

func (s *historialService) Corregir(ctx context.Context, cubiertaID, historialID uuid.UUID, req dto.CorregirHistorialRequest) (*dto.CorreccionHistorialResponse, error) {
	unlock := s.locks.Lock(cubiertaID)
	defer unlock()

	cubierta, err := s.cubiertaRepo.FindByID(ctx, cubiertaID)
	if err != nil {
		return nil, notFoundOr(err, "Cubierta no encontrada")
	}
	original, err := s.repo.FindByID(ctx, historialID)
	if err != nil || original.CubiertaID != cubiertaID {
		return nil, NotFound("Entrada de historial no encontrada")
	}

	editedFields, fieldChanges := detectarCambios(original, req)
	if len(editedFields) == 0 {
		return nil, Validation("No se detectaron cambios para corregir")
	}

	var vehiculoNuevo *uuid.UUID
	if req.Vehicle != nil && *req.Vehicle != "" {
		vid, err := uuid.Parse(*req.Vehicle)
		if err != nil {
			return nil, Validation("Vehículo inválido")
		}
		vehiculoNuevo = &vid
	}

	tipoOriginal := original.Tipo
	ahora := time.Now()

	// Marca de la entrada superada: el único cambio permitido sobre una
	// entrada ya escrita.
	original.Flag = true
	original.EditedFields = editedFields
	original.Reason = fmt.Sprintf("Corregido en la orden N°%s", req.OrderNumber)
	original.CorrectedAt = &ahora
	original.Tipo = model.ACorreccion(tipoOriginal)

	nueva := clonarParaCorreccion(original, tipoOriginal, req, vehiculoNuevo, editedFields)
	nueva.Date = ahora
	nueva.Reason = componerMotivo(original.OrderNumber, req.Reason)

	// Caso especial de kilometraje: al corregir una desasignación el km
	// recorrido se recomputa; si ni la corrección ni la entrada traen kmAlta
	// se usa la última asignación vigente anterior a la entrada corregida.
	if model.EsDesasignacion(tipoOriginal) {
		if err := s.recomputarKm(ctx, cubiertaID, original, &nueva); err != nil {
			return nil, err
		}
	}

	txErr := runTx(s.cubiertaRepo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.UpdateTx(tx, original); err != nil {
			return err
		}
		if err := s.repo.CreateTx(tx, &nueva); err != nil {
			return err
		}
		return refrescarProyeccion(tx, s.repo, s.cubiertaRepo, cubierta)
	})
	if txErr != nil {
		return nil, txErr
	}
	s.invalidarCache(ctx, cubiertaID)

	log.Info().
		Str("cubierta_id", cubiertaID.String()).
		Str("historial_id", historialID.String()).
		Str("tipo", tipoOriginal).
		Strs("edited_fields", editedFields).
		Str("orden", req.OrderNumber).
		Msg("entrada de historial corregida")

	return &dto.CorreccionHistorialResponse{
		Cubierta:     cubiertaToResponse(cubierta),
		EditedFields: editedFields,
		FieldChanges: fieldChanges,
	}, nil
}

// detectarCambios compara los campos corregibles del request contra la
// entrada original. Vacío y ausente cuentan como iguales entre sí; el resto
// se compara por representación textual, como hacía el sistema histórico.
func detectarCambios(original *model.Historial, req dto.CorregirHistorialRequest) ([]string, map[string]dto.FieldChange) {
	var editedFields []string
	fieldChanges := make(map[string]dto.FieldChange)

	cambia := func(antes, despues string) bool {
		if antes == "" && despues == "" {
			return false
		}
		return antes != despues
	}
	kmStr := func(km *int) string {
		if km == nil {
			return ""
		}
		return strconv.Itoa(*km)
	}
	vehStr := func(v *uuid.UUID) string {
		if v == nil {
			return ""
		}
		return v.String()
	}

	if req.KmAlta != nil && cambia(kmStr(original.KmAlta), kmStr(req.KmAlta)) {
		editedFields = append(editedFields, "kmAlta")
		fieldChanges["kmAlta"] = dto.FieldChange{Before: original.KmAlta, After: *req.KmAlta}
	}
	if req.KmBaja != nil && cambia(kmStr(original.KmBaja), kmStr(req.KmBaja)) {
		editedFields = append(editedFields, "kmBaja")
		fieldChanges["kmBaja"] = dto.FieldChange{Before: original.KmBaja, After: *req.KmBaja}
	}
	if req.Status != nil && cambia(original.Status, *req.Status) {
		editedFields = append(editedFields, "status")
		fieldChanges["status"] = dto.FieldChange{Before: original.Status, After: *req.Status}
	}
	if req.Vehicle != nil && cambia(vehStr(original.VehiculoID), *req.Vehicle) {
		editedFields = append(editedFields, "vehicle")
		fieldChanges["vehicle"] = dto.FieldChange{Before: vehStr(original.VehiculoID), After: *req.Vehicle}
	}
	return editedFields, fieldChanges
}

// clonarParaCorreccion arma la entrada de reemplazo: los campos de la
// original con las correcciones por encima.
func clonarParaCorreccion(original *model.Historial, tipoOriginal string, req dto.CorregirHistorialRequest, vehiculoNuevo *uuid.UUID, editedFields []string) model.Historial {
	corrects := original.ID
	nueva := model.Historial{
		CubiertaID:    original.CubiertaID,
		Tipo:          model.ACorreccion(tipoOriginal),
		KmAlta:        original.KmAlta,
		KmBaja:        original.KmBaja,
		Km:            original.Km,
		Status:        original.Status,
		VehiculoID:    original.VehiculoID,
		OrderNumber:   req.OrderNumber,
		ReceiptNumber: original.ReceiptNumber,
		EditedFields:  editedFields,
		Flag:          true,
		Corrects:      &corrects,
	}
	if req.KmAlta != nil {
		nueva.KmAlta = req.KmAlta
	}
	if req.KmBaja != nil {
		nueva.KmBaja = req.KmBaja
	}
	if req.Status != nil {
		nueva.Status = *req.Status
	}
	if req.Vehicle != nil {
		nueva.VehiculoID = vehiculoNuevo
	}
	return nueva
}

// componerMotivo arma el motivo de la entrada de reemplazo, sumando el texto
// del usuario cuando aporta algo distinto del texto estándar.
func componerMotivo(ordenOriginal, extra string) string {
	base := fmt.Sprintf("Corrección de Orden N°%s", ordenOriginal)
	if extra != "" && extra != base {
		return base + " " + extra
	}
	return base
}

func (s *historialService) recomputarKm(ctx context.Context, cubiertaID uuid.UUID, original *model.Historial, nueva *model.Historial) error {
	kmAlta := 0
	switch {
	case nueva.KmAlta != nil:
		kmAlta = *nueva.KmAlta
	default:
		historial, err := s.repo.ListByCubierta(ctx, cubiertaID)
		if err != nil {
			return err
		}
		if ultima := ultimaAsignacionValida(historial, original.Date); ultima != nil && ultima.KmAlta != nil {
			kmAlta = *ultima.KmAlta
			nueva.KmAlta = ultima.KmAlta
		}
	}
	kmBaja := 0
	if nueva.KmBaja != nil {
		kmBaja = *nueva.KmBaja
	}
	km := kmBaja - kmAlta
	nueva.Km = &km
	return nil
}

// ── Deshacer ─────────────────────────────────────────────────────────────────

func (s *historialService) Deshacer(ctx context.Context, cubiertaID, historialID uuid.UUID, req dto.DeshacerHistorialRequest) (*dto.DeshacerHistorialResponse, error) {
	unlock := s.locks.Lock(cubiertaID)
	defer unlock()

	cubierta, err := s.cubiertaRepo.FindByID(ctx, cubiertaID)
	if err != nil {
		return nil, notFoundOr(err, "Cubierta no encontrada")
	}
	original, err := s.repo.FindByID(ctx, historialID)
	if err != nil || original.CubiertaID != cubiertaID {
		return nil, NotFound("Entrada de historial no encontrada")
	}

	historial, err := s.repo.ListByCubierta(ctx, cubiertaID)
	if err != nil {
		return nil, err
	}

	tipoOriginal := original.Tipo
	nueva, revertedTo, err := s.entradaInversa(tipoOriginal, original, historial, req)
	if err != nil {
		return nil, err
	}

	ahora := time.Now()
	original.Flag = true
	original.EditedFields = []string{"Undo"}
	original.Reason = fmt.Sprintf("Corregido en la orden N°%s", req.OrderNumber)
	original.CorrectedAt = &ahora
	original.Tipo = model.ACorreccion(tipoOriginal)

	nueva.Date = ahora
	txErr := runTx(s.cubiertaRepo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.UpdateTx(tx, original); err != nil {
			return err
		}
		if err := s.repo.CreateTx(tx, nueva); err != nil {
			return err
		}
		return refrescarProyeccion(tx, s.repo, s.cubiertaRepo, cubierta)
	})
	if txErr != nil {
		return nil, txErr
	}
	s.invalidarCache(ctx, cubiertaID)

	log.Info().
		Str("cubierta_id", cubiertaID.String()).
		Str("historial_id", historialID.String()).
		Str("tipo", tipoOriginal).
		Str("orden", req.OrderNumber).
		Str("reverted_to", revertedTo).
		Msg("entrada de historial deshecha")

	return &dto.DeshacerHistorialResponse{
		Cubierta:         cubiertaToResponse(cubierta),
		NewEntry:         historialToItem(nueva),
		CorrectedEntryID: original.ID.String(),
		RevertedTo:       revertedTo,
	}, nil
}

// entradaInversa construye la entrada compensatoria según el tipo semántico
// de la entrada a deshacer.
func (s *historialService) entradaInversa(tipo string, original *model.Historial, historial []model.Historial, req dto.DeshacerHistorialRequest) (*model.Historial, string, error) {
	corrects := original.ID
	motivo := fmt.Sprintf("Deshacer de Orden N°%s", original.OrderNumber)
	if req.Reason != "" {
		motivo = motivo + " " + req.Reason
	}

	base := model.Historial{
		CubiertaID:    original.CubiertaID,
		OrderNumber:   req.OrderNumber,
		ReceiptNumber: model.ReciboPorDefecto,
		Reason:        motivo,
		Corrects:      &corrects,
	}

	switch {
	case model.EsAsignacion(tipo):
		// Deshacer una asignación libera la cubierta. Sin lecturas de
		// odómetro: la baja compensatoria no suma kilómetros.
		base.Tipo = model.TipoDesasignacion
		base.Status = original.Status
		return &base, "Cubierta liberada del vehículo", nil

	case model.EsDesasignacion(tipo):
		previa := ultimaAsignacionValida(historial, original.Date)
		if previa == nil {
			return nil, "", BusinessRule("No hay una asignación previa a la cual revertir")
		}
		base.Tipo = model.TipoAsignacion
		base.Status = original.Status
		base.VehiculoID = previa.VehiculoID
		base.KmAlta = previa.KmAlta
		return &base, "Cubierta reasignada al vehículo anterior", nil

	case model.EsEstado(tipo):
		estadoPrevio := model.EstadoNueva
		for _, h := range recalc.Validas(historial) {
			if !h.Date.Before(original.Date) {
				break
			}
			if (model.EsEstado(h.Tipo) || model.EsAlta(h.Tipo)) && h.Status != "" {
				estadoPrevio = h.Status
			}
		}
		base.Tipo = model.TipoEstado
		base.Status = estadoPrevio
		return &base, fmt.Sprintf("Estado restablecido a %q", estadoPrevio), nil

	case model.EsAlta(tipo):
		return nil, "", BusinessRule("No se puede deshacer el alta de una cubierta")

	default:
		return nil, "", BusinessRule("Tipo de entrada no soportado para deshacer")
	}
}

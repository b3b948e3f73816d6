package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Lunatico0/ControlCubiertas-Backend/internal/dto"
	"github.com/Lunatico0/ControlCubiertas-Backend/internal/model"
	"github.com/Lunatico0/ControlCubiertas-Backend/internal/repository"
	"github.com/Lunatico0/ControlCubiertas-Backend/internal/worker"
)

const cacheCubiertaTTL = 15 * time.Minute

// CubiertaService orquesta el ciclo de vida de una cubierta. Cada operación
// de escritura toma el lock de la cubierta, agrega una entrada de historial y
// re-ejecuta el recálculo para refrescar la proyección — siempre en ese orden
// y dentro de una misma transacción.
type CubiertaService interface {
	Crear(ctx context.Context, req dto.CrearCubiertaRequest) (*dto.CubiertaResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.CubiertaResponse, error)
	Listar(ctx context.Context) ([]dto.CubiertaResponse, error)
	Asignar(ctx context.Context, id uuid.UUID, req dto.AsignarVehiculoRequest) (*dto.CubiertaResponse, error)
	Desasignar(ctx context.Context, id uuid.UUID, req dto.DesasignarVehiculoRequest) (*dto.DesasignarResponse, error)
	CambiarEstado(ctx context.Context, id uuid.UUID, req dto.CambiarEstadoRequest) (*dto.CambioEstadoResponse, error)
	CorregirDatos(ctx context.Context, id uuid.UUID, req dto.CorregirDatosRequest) (*dto.CorreccionDatosResponse, error)
}

type cubiertaService struct {
	repo          repository.CubiertaRepository
	historialRepo repository.HistorialRepository
	vehiculoRepo  repository.VehiculoRepository
	locks         *CubiertaLocks
	rdb           *redis.Client
	dispatcher    *worker.Dispatcher
}

func NewCubiertaService(
	repo repository.CubiertaRepository,
	historialRepo repository.HistorialRepository,
	vehiculoRepo repository.VehiculoRepository,
	locks *CubiertaLocks,
	rdb *redis.Client,
	dispatcher *worker.Dispatcher,
) CubiertaService {
	return &cubiertaService{
		repo:          repo,
		historialRepo: historialRepo,
		vehiculoRepo:  vehiculoRepo,
		locks:         locks,
		rdb:           rdb,
		dispatcher:    dispatcher,
	}
}

// ── Crear ────────────────────────────────────────────────────────────────────

func (s *cubiertaService) Crear(ctx context.Context, req dto.CrearCubiertaRequest) (*dto.CubiertaResponse, error) {
	if !model.EstadoValido(req.Status) {
		return nil, Validation("Estado inválido: " + req.Status)
	}
	if existente, err := s.repo.FindByCode(ctx, req.Code); err == nil && existente != nil {
		return nil, Conflict("Ya existe una cubierta con ese código")
	}

	// El alta puede retrofecharse para cargar cubiertas ya en servicio.
	fechaAlta := time.Now()
	if req.CreatedAt != nil {
		if parsed, err := time.Parse(time.RFC3339, *req.CreatedAt); err == nil {
			fechaAlta = parsed
		}
	}

	var vehiculoID *uuid.UUID
	if req.Vehicle != nil && *req.Vehicle != "" {
		vid, err := uuid.Parse(*req.Vehicle)
		if err != nil {
			return nil, Validation("Vehículo inválido")
		}
		if _, err := s.vehiculoRepo.FindByID(ctx, vid); err != nil {
			return nil, notFoundOr(err, "Vehículo no encontrado")
		}
		vehiculoID = &vid
	}

	kmInicial := req.Kilometers
	cubierta := model.Cubierta{
		Code:         req.Code,
		Brand:        req.Brand,
		Pattern:      req.Pattern,
		SerialNumber: req.SerialNumber,
		Status:       req.Status,
		Kilometers:   kmInicial,
		CreatedAt:    fechaAlta,
	}

	txErr := runTx(s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, &cubierta); err != nil {
			return err
		}

		alta := model.Historial{
			CubiertaID:    cubierta.ID,
			Date:          fechaAlta,
			Tipo:          model.TipoAlta,
			Km:            &kmInicial,
			Status:        req.Status,
			OrderNumber:   req.OrderNumber,
			ReceiptNumber: model.ReciboPorDefecto,
		}
		if err := s.historialRepo.CreateTx(tx, &alta); err != nil {
			return err
		}

		// Alta con vehículo: la asignación va al historial como evento propio,
		// así la proyección sigue siendo derivable solo del log.
		if vehiculoID != nil {
			asignacion := model.Historial{
				CubiertaID:    cubierta.ID,
				Date:          fechaAlta.Add(time.Millisecond),
				Tipo:          model.TipoAsignacion,
				Status:        req.Status,
				VehiculoID:    vehiculoID,
				OrderNumber:   req.OrderNumber,
				ReceiptNumber: model.ReciboPorDefecto,
			}
			if err := s.historialRepo.CreateTx(tx, &asignacion); err != nil {
				return err
			}
		}

		return refrescarProyeccion(tx, s.historialRepo, s.repo, &cubierta)
	})
	if txErr != nil {
		return nil, txErr
	}

	if vehiculoID != nil {
		s.repararIndiceVehiculo(ctx, *vehiculoID)
	}

	log.Info().
		Int("code", cubierta.Code).
		Str("cubierta_id", cubierta.ID.String()).
		Str("status", cubierta.Status).
		Msg("cubierta creada")

	return s.responderConVehiculo(ctx, cubierta.ID)
}

// ── Lecturas ─────────────────────────────────────────────────────────────────

func (s *cubiertaService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.CubiertaResponse, error) {
	cacheKey := "cubierta:" + id.String()

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var resp dto.CubiertaResponse
			if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
				return &resp, nil
			}
		}
	}

	cubierta, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Cubierta no encontrada")
	}
	resp := cubiertaToResponse(cubierta)

	if s.rdb != nil {
		if b, jsonErr := json.Marshal(resp); jsonErr == nil {
			_ = s.rdb.Set(ctx, cacheKey, b, cacheCubiertaTTL).Err()
		}
	}
	return resp, nil
}

func (s *cubiertaService) Listar(ctx context.Context) ([]dto.CubiertaResponse, error) {
	cubiertas, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.CubiertaResponse, 0, len(cubiertas))
	for i := range cubiertas {
		resp = append(resp, *cubiertaToResponse(&cubiertas[i]))
	}
	return resp, nil
}

// ── Asignar ──────────────────────────────────────────────────────────────────

func (s *cubiertaService) Asignar(ctx context.Context, id uuid.UUID, req dto.AsignarVehiculoRequest) (*dto.CubiertaResponse, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	cubierta, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Cubierta no encontrada")
	}
	if cubierta.VehiculoID != nil {
		return nil, Conflict("La cubierta ya está asignada a un vehículo")
	}

	vehiculoID, err := uuid.Parse(req.Vehicle)
	if err != nil {
		return nil, Validation("Vehículo inválido")
	}
	if _, err := s.vehiculoRepo.FindByID(ctx, vehiculoID); err != nil {
		return nil, notFoundOr(err, "Vehículo no encontrado")
	}

	txErr := runTx(s.repo.DB(), func(tx *gorm.DB) error {
		entrada := model.Historial{
			CubiertaID:    cubierta.ID,
			Date:          time.Now(),
			Tipo:          model.TipoAsignacion,
			Status:        cubierta.Status,
			VehiculoID:    &vehiculoID,
			KmAlta:        req.KmAlta,
			OrderNumber:   req.OrderNumber,
			ReceiptNumber: model.ReciboPorDefecto,
		}
		if err := s.historialRepo.CreateTx(tx, &entrada); err != nil {
			return err
		}
		return refrescarProyeccion(tx, s.historialRepo, s.repo, cubierta)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.invalidarCache(ctx, id)
	s.repararIndiceVehiculo(ctx, vehiculoID)

	log.Info().
		Str("cubierta_id", id.String()).
		Str("vehiculo_id", vehiculoID.String()).
		Int("km_alta", derefKm(req.KmAlta)).
		Str("orden", req.OrderNumber).
		Msg("cubierta asignada")

	return s.responderConVehiculo(ctx, id)
}

// ── Desasignar ───────────────────────────────────────────────────────────────

func (s *cubiertaService) Desasignar(ctx context.Context, id uuid.UUID, req dto.DesasignarVehiculoRequest) (*dto.DesasignarResponse, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	cubierta, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Cubierta no encontrada")
	}
	if cubierta.VehiculoID == nil {
		return nil, Conflict("La cubierta no está asignada a ningún vehículo")
	}
	vehiculoAnterior := *cubierta.VehiculoID

	historial, err := s.historialRepo.ListByCubierta(ctx, id)
	if err != nil {
		return nil, err
	}

	// kmAlta sale de la última asignación vigente; sin lectura previa se
	// asume 0, igual que el sistema histórico.
	kmAlta := 0
	if ultima := ultimaAsignacionValida(historial, time.Now()); ultima != nil && ultima.KmAlta != nil {
		kmAlta = *ultima.KmAlta
	}
	kmBaja := derefKm(req.KmBaja)
	kmRecorridos := kmBaja - kmAlta
	if kmRecorridos < 0 {
		return nil, Validation("El kilometraje de baja no puede ser menor que el de alta")
	}

	txErr := runTx(s.repo.DB(), func(tx *gorm.DB) error {
		entrada := model.Historial{
			CubiertaID:    cubierta.ID,
			Date:          time.Now(),
			Tipo:          model.TipoDesasignacion,
			Status:        cubierta.Status,
			KmBaja:        req.KmBaja,
			Km:            &kmRecorridos,
			OrderNumber:   req.OrderNumber,
			ReceiptNumber: model.ReciboPorDefecto,
		}
		if err := s.historialRepo.CreateTx(tx, &entrada); err != nil {
			return err
		}
		return refrescarProyeccion(tx, s.historialRepo, s.repo, cubierta)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.invalidarCache(ctx, id)
	s.repararIndiceVehiculo(ctx, vehiculoAnterior)

	log.Info().
		Str("cubierta_id", id.String()).
		Str("vehiculo_id", vehiculoAnterior.String()).
		Int("km_recorridos", kmRecorridos).
		Str("orden", req.OrderNumber).
		Msg("cubierta desasignada")

	return &dto.DesasignarResponse{
		Cubierta:     cubiertaToResponse(cubierta),
		KmAlta:       kmAlta,
		KmBaja:       kmBaja,
		KmRecorridos: kmRecorridos,
	}, nil
}

// ── Cambiar estado ───────────────────────────────────────────────────────────

func (s *cubiertaService) CambiarEstado(ctx context.Context, id uuid.UUID, req dto.CambiarEstadoRequest) (*dto.CambioEstadoResponse, error) {
	if !model.EstadoValido(req.Status) {
		return nil, Validation("Estado inválido: " + req.Status)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	cubierta, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Cubierta no encontrada")
	}
	estadoAnterior := cubierta.Status

	txErr := runTx(s.repo.DB(), func(tx *gorm.DB) error {
		entrada := model.Historial{
			CubiertaID:    cubierta.ID,
			Date:          time.Now(),
			Tipo:          model.TipoEstado,
			Status:        req.Status,
			VehiculoID:    cubierta.VehiculoID,
			OrderNumber:   req.OrderNumber,
			ReceiptNumber: model.ReciboPorDefecto,
		}
		if err := s.historialRepo.CreateTx(tx, &entrada); err != nil {
			return err
		}
		return refrescarProyeccion(tx, s.historialRepo, s.repo, cubierta)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.invalidarCache(ctx, id)

	return &dto.CambioEstadoResponse{
		Cubierta:       cubiertaToResponse(cubierta),
		PreviousStatus: estadoAnterior,
	}, nil
}

// ── Corregir datos de identidad ──────────────────────────────────────────────

// CorregirDatos corrige campos de identidad (código, serie, marca, dibujo).
// No participan del recálculo: se registra una Corrección-Alta marcada con
// flag y sin corrects, que el fold ignora, y se actualizan los campos en la
// proyección directamente.
func (s *cubiertaService) CorregirDatos(ctx context.Context, id uuid.UUID, req dto.CorregirDatosRequest) (*dto.CorreccionDatosResponse, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	cubierta, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Cubierta no encontrada")
	}

	previousData := make(map[string]interface{})
	fieldChanges := make(map[string]dto.FieldChange)
	var editedFields []string

	if req.SerialNumber != "" && req.SerialNumber != cubierta.SerialNumber {
		previousData["serialNumber"] = cubierta.SerialNumber
		fieldChanges["serialNumber"] = dto.FieldChange{Before: cubierta.SerialNumber, After: req.SerialNumber}
		cubierta.SerialNumber = req.SerialNumber
		editedFields = append(editedFields, "serialNumber")
	}
	if req.Code != nil && *req.Code != cubierta.Code {
		if existente, err := s.repo.FindByCode(ctx, *req.Code); err == nil && existente != nil {
			return nil, Conflict("Ya existe una cubierta con ese código")
		}
		previousData["code"] = cubierta.Code
		fieldChanges["code"] = dto.FieldChange{Before: cubierta.Code, After: *req.Code}
		cubierta.Code = *req.Code
		editedFields = append(editedFields, "code")
	}
	if req.Brand != "" && req.Brand != cubierta.Brand {
		previousData["brand"] = cubierta.Brand
		fieldChanges["brand"] = dto.FieldChange{Before: cubierta.Brand, After: req.Brand}
		cubierta.Brand = req.Brand
		editedFields = append(editedFields, "brand")
	}
	if req.Pattern != "" && req.Pattern != cubierta.Pattern {
		previousData["pattern"] = cubierta.Pattern
		fieldChanges["pattern"] = dto.FieldChange{Before: cubierta.Pattern, After: req.Pattern}
		cubierta.Pattern = req.Pattern
		editedFields = append(editedFields, "pattern")
	}

	if len(editedFields) == 0 {
		return nil, Validation("No se detectaron cambios válidos para corregir")
	}

	fecha := time.Now()
	if req.Date != nil {
		if parsed, err := time.Parse(time.RFC3339, *req.Date); err == nil {
			fecha = parsed
		}
	}

	kmSnapshot := cubierta.Kilometers
	txErr := runTx(s.repo.DB(), func(tx *gorm.DB) error {
		entrada := model.Historial{
			CubiertaID:    cubierta.ID,
			Date:          fecha,
			Tipo:          model.TipoCorreccionAlta,
			Km:            &kmSnapshot,
			Status:        cubierta.Status,
			VehiculoID:    cubierta.VehiculoID,
			EditedFields:  editedFields,
			Reason:        req.Reason,
			Flag:          true,
			OrderNumber:   req.OrderNumber,
			ReceiptNumber: model.ReciboPorDefecto,
		}
		if err := s.historialRepo.CreateTx(tx, &entrada); err != nil {
			return err
		}
		return s.repo.UpdateTx(tx, cubierta)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.invalidarCache(ctx, id)

	log.Info().
		Str("cubierta_id", id.String()).
		Strs("edited_fields", editedFields).
		Str("orden", req.OrderNumber).
		Msg("datos de cubierta corregidos")

	return &dto.CorreccionDatosResponse{
		Cubierta:     cubiertaToResponse(cubierta),
		PreviousData: previousData,
		EditedFields: editedFields,
		FieldChanges: fieldChanges,
	}, nil
}

// ── Internos ─────────────────────────────────────────────────────────────────

func (s *cubiertaService) responderConVehiculo(ctx context.Context, id uuid.UUID) (*dto.CubiertaResponse, error) {
	cubierta, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Cubierta no encontrada")
	}
	return cubiertaToResponse(cubierta), nil
}

func (s *cubiertaService) invalidarCache(ctx context.Context, id uuid.UUID) {
	if s.rdb == nil {
		return
	}
	_ = s.rdb.Del(ctx, "cubierta:"+id.String()).Err()
}

// repararIndiceVehiculo mantiene el índice de cubiertas del vehículo: lo
// actualiza en el momento (mejor esfuerzo) y encola una reparación de fondo
// que re-deriva el set completo desde las proyecciones.
func (s *cubiertaService) repararIndiceVehiculo(ctx context.Context, vehiculoID uuid.UUID) {
	asignadas, err := s.repo.ListByVehiculo(ctx, vehiculoID)
	if err == nil {
		if vehiculo, vErr := s.vehiculoRepo.FindByID(ctx, vehiculoID); vErr == nil {
			ids := make([]string, 0, len(asignadas))
			for _, c := range asignadas {
				ids = append(ids, c.ID.String())
			}
			vehiculo.TireIDs = ids
			if uErr := s.vehiculoRepo.Update(ctx, vehiculo); uErr != nil {
				log.Warn().Err(uErr).Str("vehiculo_id", vehiculoID.String()).Msg("no se pudo actualizar el índice del vehículo")
			}
		}
	}
	if s.dispatcher != nil {
		_ = s.dispatcher.EnqueueReparacion(ctx, vehiculoID.String())
	}
}

func derefKm(km *int) int {
	if km == nil {
		return 0
	}
	return *km
}

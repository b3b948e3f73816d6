package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Lunatico0/ControlCubiertas-Backend/internal/dto"
	"github.com/Lunatico0/ControlCubiertas-Backend/internal/model"
	"github.com/Lunatico0/ControlCubiertas-Backend/internal/repository"
)

// VehiculoService administra la flota. Asignar y quitar cubiertas desde el
// lado del vehículo también pasa por el historial: cada cambio de set emite
// eventos de Asignación o Desasignación por cubierta, sin lecturas de
// odómetro, y refresca las proyecciones afectadas.
type VehiculoService interface {
	Crear(ctx context.Context, req dto.CrearVehiculoRequest) (*dto.VehiculoResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.VehiculoResponse, error)
	Listar(ctx context.Context) ([]dto.VehiculoResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarVehiculoRequest) (*dto.VehiculoResponse, error)
	RepararIndice(ctx context.Context, id uuid.UUID) (*dto.VehiculoResponse, error)
}

type vehiculoService struct {
	repo          repository.VehiculoRepository
	cubiertaRepo  repository.CubiertaRepository
	historialRepo repository.HistorialRepository
	locks         *CubiertaLocks
	rdb           *redis.Client
}

func NewVehiculoService(
	repo repository.VehiculoRepository,
	cubiertaRepo repository.CubiertaRepository,
	historialRepo repository.HistorialRepository,
	locks *CubiertaLocks,
	rdb *redis.Client,
) VehiculoService {
	return &vehiculoService{
		repo:          repo,
		cubiertaRepo:  cubiertaRepo,
		historialRepo: historialRepo,
		locks:         locks,
		rdb:           rdb,
	}
}

func (s *vehiculoService) Crear(ctx context.Context, req dto.CrearVehiculoRequest) (*dto.VehiculoResponse, error) {
	cubiertaIDs, err := parseCubiertaIDs(req.Tires)
	if err != nil {
		return nil, err
	}

	cubiertas := make([]*model.Cubierta, 0, len(cubiertaIDs))
	for _, cid := range cubiertaIDs {
		c, err := s.cubiertaRepo.FindByID(ctx, cid)
		if err != nil {
			return nil, notFoundOr(err, "Cubierta no encontrada")
		}
		if c.VehiculoID != nil {
			return nil, Conflict("Algunas cubiertas ya están asignadas a otros vehículos")
		}
		cubiertas = append(cubiertas, c)
	}

	vehiculo := model.Vehiculo{
		Brand:        req.Brand,
		Mobile:       req.Mobile,
		LicensePlate: req.LicensePlate,
		Type:         req.Type,
		TireIDs:      req.Tires,
	}

	txErr := runTx(s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, &vehiculo); err != nil {
			return err
		}
		for _, c := range cubiertas {
			if err := s.asignarTx(tx, c, vehiculo.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	for _, cid := range cubiertaIDs {
		s.invalidarCacheCubierta(ctx, cid)
	}

	log.Info().
		Str("vehiculo_id", vehiculo.ID.String()).
		Str("mobile", vehiculo.Mobile).
		Int("cubiertas", len(cubiertas)).
		Msg("vehículo creado")

	return s.responder(ctx, vehiculo.ID)
}

func (s *vehiculoService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.VehiculoResponse, error) {
	return s.responder(ctx, id)
}

func (s *vehiculoService) Listar(ctx context.Context) ([]dto.VehiculoResponse, error) {
	vehiculos, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.VehiculoResponse, 0, len(vehiculos))
	for i := range vehiculos {
		resp = append(resp, *vehiculoToResponse(&vehiculos[i]))
	}
	return resp, nil
}

// Actualizar reemplaza el set completo de cubiertas del vehículo. Las que
// salen del set se desasignan, las que entran se asignan; las que ya estaban
// no generan eventos.
func (s *vehiculoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarVehiculoRequest) (*dto.VehiculoResponse, error) {
	vehiculo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Vehículo no encontrado")
	}

	nuevas, err := parseCubiertaIDs(req.Tires)
	if err != nil {
		return nil, err
	}

	nuevoSet := make(map[uuid.UUID]bool, len(nuevas))
	for _, cid := range nuevas {
		nuevoSet[cid] = true
	}

	actuales, err := s.cubiertaRepo.ListByVehiculo(ctx, id)
	if err != nil {
		return nil, err
	}
	actualSet := make(map[uuid.UUID]bool, len(actuales))
	for _, c := range actuales {
		actualSet[c.ID] = true
	}

	var aQuitar []*model.Cubierta
	for i := range actuales {
		if !nuevoSet[actuales[i].ID] {
			aQuitar = append(aQuitar, &actuales[i])
		}
	}
	var aAgregar []*model.Cubierta
	for _, cid := range nuevas {
		if actualSet[cid] {
			continue
		}
		c, err := s.cubiertaRepo.FindByID(ctx, cid)
		if err != nil {
			return nil, notFoundOr(err, "Cubierta no encontrada")
		}
		if c.VehiculoID != nil && *c.VehiculoID != id {
			return nil, Conflict("Algunas cubiertas ya están asignadas a otros vehículos")
		}
		aAgregar = append(aAgregar, c)
	}

	txErr := runTx(s.repo.DB(), func(tx *gorm.DB) error {
		for _, c := range aQuitar {
			if err := s.desasignarTx(tx, c); err != nil {
				return err
			}
		}
		for _, c := range aAgregar {
			if err := s.asignarTx(tx, c, id); err != nil {
				return err
			}
		}
		vehiculo.TireIDs = req.Tires
		return s.repo.UpdateTx(tx, vehiculo)
	})
	if txErr != nil {
		return nil, txErr
	}

	for _, c := range aQuitar {
		s.invalidarCacheCubierta(ctx, c.ID)
	}
	for _, c := range aAgregar {
		s.invalidarCacheCubierta(ctx, c.ID)
	}

	log.Info().
		Str("vehiculo_id", id.String()).
		Int("quitadas", len(aQuitar)).
		Int("agregadas", len(aAgregar)).
		Msg("set de cubiertas del vehículo actualizado")

	return s.responder(ctx, id)
}

// RepararIndice re-deriva el índice de cubiertas del vehículo desde las
// proyecciones. Es la versión pedida a demanda del job de fondo.
func (s *vehiculoService) RepararIndice(ctx context.Context, id uuid.UUID) (*dto.VehiculoResponse, error) {
	vehiculo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Vehículo no encontrado")
	}

	asignadas, err := s.cubiertaRepo.ListByVehiculo(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(asignadas))
	for _, c := range asignadas {
		ids = append(ids, c.ID.String())
	}
	vehiculo.TireIDs = ids
	if err := s.repo.Update(ctx, vehiculo); err != nil {
		return nil, err
	}

	log.Info().
		Str("vehiculo_id", id.String()).
		Int("cubiertas", len(ids)).
		Msg("índice de cubiertas reparado")

	return s.responder(ctx, id)
}

// ── Internos ─────────────────────────────────────────────────────────────────

// asignarTx emite el evento de asignación y refresca la proyección de la
// cubierta. Se asume que el llamador ya validó que la cubierta está libre.
func (s *vehiculoService) asignarTx(tx *gorm.DB, cubierta *model.Cubierta, vehiculoID uuid.UUID) error {
	unlock := s.locks.Lock(cubierta.ID)
	defer unlock()

	entrada := model.Historial{
		CubiertaID:    cubierta.ID,
		Date:          time.Now(),
		Tipo:          model.TipoAsignacion,
		Status:        cubierta.Status,
		VehiculoID:    &vehiculoID,
		ReceiptNumber: model.ReciboPorDefecto,
	}
	if err := s.historialRepo.CreateTx(tx, &entrada); err != nil {
		return err
	}
	return refrescarProyeccion(tx, s.historialRepo, s.cubiertaRepo, cubierta)
}

// desasignarTx emite el evento de desasignación sin lecturas de odómetro;
// el recálculo no suma kilómetros cuando faltan las lecturas.
func (s *vehiculoService) desasignarTx(tx *gorm.DB, cubierta *model.Cubierta) error {
	unlock := s.locks.Lock(cubierta.ID)
	defer unlock()

	entrada := model.Historial{
		CubiertaID:    cubierta.ID,
		Date:          time.Now(),
		Tipo:          model.TipoDesasignacion,
		Status:        cubierta.Status,
		ReceiptNumber: model.ReciboPorDefecto,
	}
	if err := s.historialRepo.CreateTx(tx, &entrada); err != nil {
		return err
	}
	return refrescarProyeccion(tx, s.historialRepo, s.cubiertaRepo, cubierta)
}

func (s *vehiculoService) responder(ctx context.Context, id uuid.UUID) (*dto.VehiculoResponse, error) {
	vehiculo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Vehículo no encontrado")
	}
	return vehiculoToResponse(vehiculo), nil
}

func (s *vehiculoService) invalidarCacheCubierta(ctx context.Context, id uuid.UUID) {
	if s.rdb == nil {
		return
	}
	_ = s.rdb.Del(ctx, "cubierta:"+id.String()).Err()
}

func parseCubiertaIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, Validation("Identificador de cubierta inválido: " + r)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

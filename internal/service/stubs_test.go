package service

// In-memory repository stubs. The services run their transactions through
// runTx, which degrades to a plain call when DB() returns nil, so the whole
// lifecycle can be exercised without a database.

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Lunatico0/ControlCubiertas-Backend/internal/model"
)

// ── CubiertaRepository stub ──────────────────────────────────────────────────

type stubCubiertaRepo struct {
	cubiertas map[uuid.UUID]*model.Cubierta
}

func newStubCubiertaRepo() *stubCubiertaRepo {
	return &stubCubiertaRepo{cubiertas: make(map[uuid.UUID]*model.Cubierta)}
}

func (r *stubCubiertaRepo) guardar(c *model.Cubierta) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	cloned := *c
	r.cubiertas[c.ID] = &cloned
}

func (r *stubCubiertaRepo) Create(_ context.Context, c *model.Cubierta) error {
	r.guardar(c)
	return nil
}

func (r *stubCubiertaRepo) CreateTx(_ *gorm.DB, c *model.Cubierta) error {
	r.guardar(c)
	return nil
}

func (r *stubCubiertaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Cubierta, error) {
	c, ok := r.cubiertas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cloned := *c
	return &cloned, nil
}

func (r *stubCubiertaRepo) FindByCode(_ context.Context, code int) (*model.Cubierta, error) {
	for _, c := range r.cubiertas {
		if c.Code == code {
			cloned := *c
			return &cloned, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCubiertaRepo) List(_ context.Context) ([]model.Cubierta, error) {
	out := make([]model.Cubierta, 0, len(r.cubiertas))
	for _, c := range r.cubiertas {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *stubCubiertaRepo) ListByVehiculo(_ context.Context, vehiculoID uuid.UUID) ([]model.Cubierta, error) {
	var out []model.Cubierta
	for _, c := range r.cubiertas {
		if c.VehiculoID != nil && *c.VehiculoID == vehiculoID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *stubCubiertaRepo) Update(_ context.Context, c *model.Cubierta) error {
	cloned := *c
	r.cubiertas[c.ID] = &cloned
	return nil
}

func (r *stubCubiertaRepo) UpdateTx(_ *gorm.DB, c *model.Cubierta) error {
	cloned := *c
	r.cubiertas[c.ID] = &cloned
	return nil
}

func (r *stubCubiertaRepo) DB() *gorm.DB { return nil }

// ── HistorialRepository stub ─────────────────────────────────────────────────

type stubHistorialRepo struct {
	entradas []model.Historial
}

func newStubHistorialRepo() *stubHistorialRepo { return &stubHistorialRepo{} }

func (r *stubHistorialRepo) agregar(h *model.Historial) {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}
	r.entradas = append(r.entradas, *h)
}

func (r *stubHistorialRepo) Create(_ context.Context, h *model.Historial) error {
	r.agregar(h)
	return nil
}

func (r *stubHistorialRepo) CreateTx(_ *gorm.DB, h *model.Historial) error {
	r.agregar(h)
	return nil
}

func (r *stubHistorialRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Historial, error) {
	for i := range r.entradas {
		if r.entradas[i].ID == id {
			cloned := r.entradas[i]
			return &cloned, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubHistorialRepo) listar(cubiertaID uuid.UUID) []model.Historial {
	var out []model.Historial
	for _, h := range r.entradas {
		if h.CubiertaID == cubiertaID {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (r *stubHistorialRepo) ListByCubierta(_ context.Context, cubiertaID uuid.UUID) ([]model.Historial, error) {
	return r.listar(cubiertaID), nil
}

func (r *stubHistorialRepo) ListByCubiertaTx(_ *gorm.DB, cubiertaID uuid.UUID) ([]model.Historial, error) {
	return r.listar(cubiertaID), nil
}

func (r *stubHistorialRepo) UpdateTx(_ *gorm.DB, h *model.Historial) error {
	for i := range r.entradas {
		if r.entradas[i].ID == h.ID {
			// Solo los campos de marcado, igual que el repo real.
			r.entradas[i].Flag = h.Flag
			r.entradas[i].Reason = h.Reason
			r.entradas[i].EditedFields = h.EditedFields
			r.entradas[i].CorrectedAt = h.CorrectedAt
			r.entradas[i].Tipo = h.Tipo
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubHistorialRepo) ExistsOrderNumber(_ context.Context, orderNumber string) (bool, error) {
	for _, h := range r.entradas {
		if h.OrderNumber == orderNumber {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubHistorialRepo) OrderNumbersByPrefix(_ context.Context, prefix string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, h := range r.entradas {
		if len(h.OrderNumber) >= len(prefix) && h.OrderNumber[:len(prefix)] == prefix && !seen[h.OrderNumber] {
			seen[h.OrderNumber] = true
			out = append(out, h.OrderNumber)
		}
	}
	return out, nil
}

// ── VehiculoRepository stub ──────────────────────────────────────────────────

type stubVehiculoRepo struct {
	vehiculos map[uuid.UUID]*model.Vehiculo
}

func newStubVehiculoRepo() *stubVehiculoRepo {
	return &stubVehiculoRepo{vehiculos: make(map[uuid.UUID]*model.Vehiculo)}
}

func (r *stubVehiculoRepo) guardar(v *model.Vehiculo) {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	cloned := *v
	r.vehiculos[v.ID] = &cloned
}

func (r *stubVehiculoRepo) Create(_ context.Context, v *model.Vehiculo) error {
	r.guardar(v)
	return nil
}

func (r *stubVehiculoRepo) CreateTx(_ *gorm.DB, v *model.Vehiculo) error {
	r.guardar(v)
	return nil
}

func (r *stubVehiculoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Vehiculo, error) {
	v, ok := r.vehiculos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cloned := *v
	return &cloned, nil
}

func (r *stubVehiculoRepo) List(_ context.Context) ([]model.Vehiculo, error) {
	out := make([]model.Vehiculo, 0, len(r.vehiculos))
	for _, v := range r.vehiculos {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Mobile < out[j].Mobile })
	return out, nil
}

func (r *stubVehiculoRepo) ListIDs(_ context.Context) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(r.vehiculos))
	for id := range r.vehiculos {
		out = append(out, id)
	}
	return out, nil
}

func (r *stubVehiculoRepo) Update(_ context.Context, v *model.Vehiculo) error {
	cloned := *v
	r.vehiculos[v.ID] = &cloned
	return nil
}

func (r *stubVehiculoRepo) UpdateTx(_ *gorm.DB, v *model.Vehiculo) error {
	cloned := *v
	r.vehiculos[v.ID] = &cloned
	return nil
}

func (r *stubVehiculoRepo) DB() *gorm.DB { return nil }

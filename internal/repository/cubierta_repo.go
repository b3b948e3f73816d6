package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Lunatico0/ControlCubiertas-Backend/internal/model"
)

type CubiertaRepository interface {
	Create(ctx context.Context, c *model.Cubierta) error
	CreateTx(tx *gorm.DB, c *model.Cubierta) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Cubierta, error)
	FindByCode(ctx context.Context, code int) (*model.Cubierta, error)
	List(ctx context.Context) ([]model.Cubierta, error)
	ListByVehiculo(ctx context.Context, vehiculoID uuid.UUID) ([]model.Cubierta, error)
	Update(ctx context.Context, c *model.Cubierta) error
	UpdateTx(tx *gorm.DB, c *model.Cubierta) error
	DB() *gorm.DB
}

type cubiertaRepo struct{ db *gorm.DB }

func NewCubiertaRepository(db *gorm.DB) CubiertaRepository {
	return &cubiertaRepo{db: db}
}

func (r *cubiertaRepo) Create(ctx context.Context, c *model.Cubierta) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error
}

func (r *cubiertaRepo) CreateTx(tx *gorm.DB, c *model.Cubierta) error {
	return tx.Omit(clause.Associations).Create(c).Error
}

func (r *cubiertaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Cubierta, error) {
	var c model.Cubierta
	err := r.db.WithContext(ctx).Preload("Vehiculo").First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cubiertaRepo) FindByCode(ctx context.Context, code int) (*model.Cubierta, error) {
	var c model.Cubierta
	err := r.db.WithContext(ctx).First(&c, "code = ?", code).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cubiertaRepo) List(ctx context.Context) ([]model.Cubierta, error) {
	var cubiertas []model.Cubierta
	err := r.db.WithContext(ctx).Preload("Vehiculo").Order("code ASC").Find(&cubiertas).Error
	return cubiertas, err
}

// ListByVehiculo returns the tires whose projection points at the given
// vehicle. This is the source-of-truth scan used to (re)build a vehicle's
// tire set.
func (r *cubiertaRepo) ListByVehiculo(ctx context.Context, vehiculoID uuid.UUID) ([]model.Cubierta, error) {
	var cubiertas []model.Cubierta
	err := r.db.WithContext(ctx).Where("vehiculo_id = ?", vehiculoID).Order("code ASC").Find(&cubiertas).Error
	return cubiertas, err
}

func (r *cubiertaRepo) Update(ctx context.Context, c *model.Cubierta) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(c).Error
}

func (r *cubiertaRepo) UpdateTx(tx *gorm.DB, c *model.Cubierta) error {
	return tx.Omit(clause.Associations).Save(c).Error
}

// DB exposes the underlying handle for transaction composition (runTx).
func (r *cubiertaRepo) DB() *gorm.DB { return r.db }

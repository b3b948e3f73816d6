package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Lunatico0/ControlCubiertas-Backend/internal/model"
)

type VehiculoRepository interface {
	Create(ctx context.Context, v *model.Vehiculo) error
	CreateTx(tx *gorm.DB, v *model.Vehiculo) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Vehiculo, error)
	List(ctx context.Context) ([]model.Vehiculo, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
	Update(ctx context.Context, v *model.Vehiculo) error
	UpdateTx(tx *gorm.DB, v *model.Vehiculo) error
	DB() *gorm.DB
}

type vehiculoRepo struct{ db *gorm.DB }

func NewVehiculoRepository(db *gorm.DB) VehiculoRepository {
	return &vehiculoRepo{db: db}
}

func (r *vehiculoRepo) Create(ctx context.Context, v *model.Vehiculo) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(v).Error
}

func (r *vehiculoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Vehiculo, error) {
	var v model.Vehiculo
	err := r.db.WithContext(ctx).Preload("Cubiertas").First(&v, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *vehiculoRepo) List(ctx context.Context) ([]model.Vehiculo, error) {
	var vehiculos []model.Vehiculo
	err := r.db.WithContext(ctx).Preload("Cubiertas").Order("mobile ASC").Find(&vehiculos).Error
	return vehiculos, err
}

func (r *vehiculoRepo) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Vehiculo{}).Pluck("id", &ids).Error
	return ids, err
}

func (r *vehiculoRepo) Update(ctx context.Context, v *model.Vehiculo) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(v).Error
}

func (r *vehiculoRepo) CreateTx(tx *gorm.DB, v *model.Vehiculo) error {
	return tx.Omit(clause.Associations).Create(v).Error
}

func (r *vehiculoRepo) UpdateTx(tx *gorm.DB, v *model.Vehiculo) error {
	return tx.Omit(clause.Associations).Save(v).Error
}

func (r *vehiculoRepo) DB() *gorm.DB {
	return r.db
}

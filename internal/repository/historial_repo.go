package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Lunatico0/ControlCubiertas-Backend/internal/model"
)

type HistorialRepository interface {
	Create(ctx context.Context, h *model.Historial) error
	CreateTx(tx *gorm.DB, h *model.Historial) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Historial, error)
	// ListByCubierta returns the full history of one tire in replay order:
	// date ascending, insertion order as tie-break.
	ListByCubierta(ctx context.Context, cubiertaID uuid.UUID) ([]model.Historial, error)
	ListByCubiertaTx(tx *gorm.DB, cubiertaID uuid.UUID) ([]model.Historial, error)
	UpdateTx(tx *gorm.DB, h *model.Historial) error
	ExistsOrderNumber(ctx context.Context, orderNumber string) (bool, error)
	OrderNumbersByPrefix(ctx context.Context, prefix string) ([]string, error)
}

type historialRepo struct{ db *gorm.DB }

func NewHistorialRepository(db *gorm.DB) HistorialRepository {
	return &historialRepo{db: db}
}

func (r *historialRepo) Create(ctx context.Context, h *model.Historial) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(h).Error
}

func (r *historialRepo) CreateTx(tx *gorm.DB, h *model.Historial) error {
	return tx.Omit(clause.Associations).Create(h).Error
}

func (r *historialRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Historial, error) {
	var h model.Historial
	err := r.db.WithContext(ctx).Preload("Vehiculo").First(&h, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *historialRepo) ListByCubierta(ctx context.Context, cubiertaID uuid.UUID) ([]model.Historial, error) {
	return listByCubierta(r.db.WithContext(ctx), cubiertaID)
}

func (r *historialRepo) ListByCubiertaTx(tx *gorm.DB, cubiertaID uuid.UUID) ([]model.Historial, error) {
	return listByCubierta(tx, cubiertaID)
}

func listByCubierta(db *gorm.DB, cubiertaID uuid.UUID) ([]model.Historial, error) {
	var historial []model.Historial
	err := db.
		Preload("Vehiculo").
		Where("cubierta_id = ?", cubiertaID).
		Order("date ASC").
		Order("created_at ASC").
		Find(&historial).Error
	return historial, err
}

// UpdateTx persists the correction bookkeeping fields of an existing entry
// (flag, reason, editedFields, correctedAt, type). It is the only mutation
// ever applied to a written entry.
func (r *historialRepo) UpdateTx(tx *gorm.DB, h *model.Historial) error {
	return tx.Model(h).
		Select("Flag", "Reason", "EditedFields", "CorrectedAt", "Tipo").
		Updates(*h).Error
}

func (r *historialRepo) ExistsOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Historial{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error
	return count > 0, err
}

// OrderNumbersByPrefix returns every distinct order number starting with the
// given prefix (the current year), used to derive the next sequence number.
func (r *historialRepo) OrderNumbersByPrefix(ctx context.Context, prefix string) ([]string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).
		Model(&model.Historial{}).
		Distinct("order_number").
		Where("order_number LIKE ?", prefix+"%").
		Pluck("order_number", &numbers).Error
	return numbers, err
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Lunatico0/ControlCubiertas-Backend/internal/model"
)

type ContadorReciboRepository interface {
	// Next atomically increments and returns the receipt counter for the
	// given point of sale, creating it on first use.
	Next(ctx context.Context, pointOfSale int) (int, error)
}

type contadorReciboRepo struct{ db *gorm.DB }

func NewContadorReciboRepository(db *gorm.DB) ContadorReciboRepository {
	return &contadorReciboRepo{db: db}
}

func (r *contadorReciboRepo) Next(ctx context.Context, pointOfSale int) (int, error) {
	var current int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Incremento atómico en el motor, sin lock explícito.
		res := tx.Model(&model.ContadorRecibo{}).
			Where("point_of_sale = ?", pointOfSale).
			UpdateColumn("current_number", gorm.Expr("current_number + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Primer recibo del punto de venta. El índice único sobre
			// point_of_sale resuelve la carrera entre dos primeros usos.
			contador := model.ContadorRecibo{PointOfSale: pointOfSale, CurrentNumber: 1}
			if err := tx.Create(&contador).Error; err != nil {
				return err
			}
			current = 1
			return nil
		}

		var contador model.ContadorRecibo
		if err := tx.Where("point_of_sale = ?", pointOfSale).First(&contador).Error; err != nil {
			return err
		}
		current = contador.CurrentNumber
		return nil
	})
	return current, err
}

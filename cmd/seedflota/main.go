package main

// Seeds a demo fleet: one vehicle and a handful of tires, each with its
// creation entry in the history so every projection is derivable from the
// log from day one. Intended for local development, safe to re-run.

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Lunatico0/ControlCubiertas-Backend/internal/config"
	"github.com/Lunatico0/ControlCubiertas-Backend/internal/infra"
	"github.com/Lunatico0/ControlCubiertas-Backend/internal/model"
	"github.com/Lunatico0/ControlCubiertas-Backend/internal/repository"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	ctx := context.Background()
	vehiculoRepo := repository.NewVehiculoRepository(db)
	cubiertaRepo := repository.NewCubiertaRepository(db)
	historialRepo := repository.NewHistorialRepository(db)

	vehiculos, err := vehiculoRepo.List(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list vehicles")
	}
	if len(vehiculos) > 0 {
		log.Info().Int("vehiculos", len(vehiculos)).Msg("fleet already seeded, nothing to do")
		return
	}

	vehiculo := model.Vehiculo{
		Brand:        "Scania",
		Mobile:       "Movil 01",
		LicensePlate: "AB123CD",
		Type:         "Camión",
	}
	if err := vehiculoRepo.Create(ctx, &vehiculo); err != nil {
		log.Fatal().Err(err).Msg("failed to create vehicle")
	}

	marcas := []string{"Firestone", "Michelin", "Bridgestone", "Pirelli"}
	for i := 0; i < 4; i++ {
		cubierta := model.Cubierta{
			Code:         100 + i,
			Brand:        marcas[i],
			Pattern:      "Direccional",
			SerialNumber: fmt.Sprintf("SER-%04d", 100+i),
			Status:       model.EstadoNueva,
		}
		if err := cubiertaRepo.Create(ctx, &cubierta); err != nil {
			log.Fatal().Err(err).Int("code", cubierta.Code).Msg("failed to create tire")
		}

		km := 0
		alta := model.Historial{
			CubiertaID:    cubierta.ID,
			Date:          time.Now(),
			Tipo:          model.TipoAlta,
			Km:            &km,
			Status:        model.EstadoNueva,
			ReceiptNumber: model.ReciboPorDefecto,
		}
		if err := historialRepo.Create(ctx, &alta); err != nil {
			log.Fatal().Err(err).Int("code", cubierta.Code).Msg("failed to create history entry")
		}
		log.Info().Int("code", cubierta.Code).Str("brand", cubierta.Brand).Msg("tire seeded")
	}

	log.Info().Str("vehiculo_id", vehiculo.ID.String()).Msg("demo fleet seeded")
}

package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Lunatico0/ControlCubiertas-Backend/internal/repository"
)

const QueueRepararVehiculos = "jobs:reparar_vehiculos"

// TodosLosVehiculos encola una reparación del índice de toda la flota.
const TodosLosVehiculos = "*"

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type reparacionPayload struct {
	VehiculoID string `json:"vehiculoId"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueReparacion pushes an index-repair job for one vehicle, or for the
// whole fleet when vehiculoID is TodosLosVehiculos.
func (d *Dispatcher) EnqueueReparacion(ctx context.Context, vehiculoID string) error {
	return d.enqueue(ctx, QueueRepararVehiculos, "reparar_vehiculo", reparacionPayload{VehiculoID: vehiculoID})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Deps holds the repositories the workers need to rebuild vehicle indexes.
type Deps struct {
	VehiculoRepo repository.VehiculoRepository
	CubiertaRepo repository.CubiertaRepository
}

// StartWorkerPool launches numWorkers goroutines consuming the repair queue.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, numWorkers int, deps Deps) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, i, deps)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, id int, deps Deps) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, QueueRepararVehiculos).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, result[1], deps)
		}
	}
}

func processJob(ctx context.Context, raw string, deps Deps) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Err(err).Msg("failed to unmarshal job")
		return
	}
	var payload reparacionPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		log.Error().Err(err).Str("type", job.Type).Msg("failed to unmarshal job payload")
		return
	}

	if payload.VehiculoID == TodosLosVehiculos {
		RepararTodos(ctx, deps)
		return
	}

	vehiculoID, err := uuid.Parse(payload.VehiculoID)
	if err != nil {
		log.Error().Str("vehiculo_id", payload.VehiculoID).Msg("job with invalid vehicle id")
		return
	}
	if err := RepararVehiculo(ctx, deps, vehiculoID); err != nil {
		log.Error().Err(err).Str("vehiculo_id", payload.VehiculoID).Msg("vehicle index repair failed")
	}
}

// RepararVehiculo re-derives the vehicle's tire index from the tire
// projections, which are themselves derived from the event log.
func RepararVehiculo(ctx context.Context, deps Deps, vehiculoID uuid.UUID) error {
	vehiculo, err := deps.VehiculoRepo.FindByID(ctx, vehiculoID)
	if err != nil {
		return err
	}
	asignadas, err := deps.CubiertaRepo.ListByVehiculo(ctx, vehiculoID)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(asignadas))
	for _, c := range asignadas {
		ids = append(ids, c.ID.String())
	}
	vehiculo.TireIDs = ids
	if err := deps.VehiculoRepo.Update(ctx, vehiculo); err != nil {
		return err
	}
	log.Debug().
		Str("vehiculo_id", vehiculoID.String()).
		Int("cubiertas", len(ids)).
		Msg("vehicle index repaired")
	return nil
}

// RepararTodos walks the whole fleet. Errors are logged per vehicle so one
// bad record does not stop the sweep.
func RepararTodos(ctx context.Context, deps Deps) {
	ids, err := deps.VehiculoRepo.ListIDs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("could not list vehicles for full repair")
		return
	}
	for _, id := range ids {
		if err := RepararVehiculo(ctx, deps, id); err != nil {
			log.Error().Err(err).Str("vehiculo_id", id.String()).Msg("vehicle index repair failed")
		}
	}
	log.Info().Int("vehiculos", len(ids)).Msg("fleet index repair finished")
}

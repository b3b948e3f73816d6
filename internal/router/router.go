package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Lunatico0/ControlCubiertas-Backend/internal/config"
	"github.com/Lunatico0/ControlCubiertas-Backend/internal/handler"
	"github.com/Lunatico0/ControlCubiertas-Backend/internal/middleware"
	"github.com/Lunatico0/ControlCubiertas-Backend/internal/repository"
	"github.com/Lunatico0/ControlCubiertas-Backend/internal/service"
	"github.com/Lunatico0/ControlCubiertas-Backend/internal/worker"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	cubiertaRepo := repository.NewCubiertaRepository(db)
	historialRepo := repository.NewHistorialRepository(db)
	vehiculoRepo := repository.NewVehiculoRepository(db)
	contadorRepo := repository.NewContadorReciboRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	locks := service.NewCubiertaLocks()

	// Worker dispatcher — injected into services that enqueue async jobs.
	// Nil when Redis is disabled; services degrade to inline-only repair.
	var dispatcher *worker.Dispatcher
	if rdb != nil {
		dispatcher = worker.NewDispatcher(rdb)
	}

	cubiertaSvc := service.NewCubiertaService(cubiertaRepo, historialRepo, vehiculoRepo, locks, rdb, dispatcher)
	historialSvc := service.NewHistorialService(historialRepo, cubiertaRepo, locks, rdb)
	vehiculoSvc := service.NewVehiculoService(vehiculoRepo, cubiertaRepo, historialRepo, locks, rdb)
	ordenSvc := service.NewOrdenService(historialRepo, contadorRepo, cfg.PuntoDeVenta)

	// ── Handlers ─────────────────────────────────────────────────────────────
	cubiertasH := handler.NewCubiertasHandler(cubiertaSvc, historialSvc)
	vehiculosH := handler.NewVehiculosHandler(vehiculoSvc)
	ordenesH := handler.NewOrdenesHandler(ordenSvc)

	// ── Routes ───────────────────────────────────────────────────────────────
	r.GET("/health", handler.Health(db, rdb))

	api := r.Group("/api")
	{
		tires := api.Group("/tires")
		{
			tires.GET("", cubiertasH.Listar)
			tires.POST("", cubiertasH.Crear)
			tires.GET("/:id", cubiertasH.Obtener)
			tires.PATCH("/:id/assign", cubiertasH.Asignar)
			tires.PATCH("/:id/unassign", cubiertasH.Desasignar)
			tires.PATCH("/:id/status", cubiertasH.CambiarEstado)
			tires.PATCH("/:id/correct", cubiertasH.CorregirDatos)
			tires.GET("/:id/history", cubiertasH.ListarHistorial)
			tires.PATCH("/:id/history/:historyId", cubiertasH.CorregirHistorial)
			tires.POST("/:id/history/:historyId/undo", cubiertasH.DeshacerHistorial)
		}

		vehicles := api.Group("/vehicles")
		{
			vehicles.GET("", vehiculosH.Listar)
			vehicles.POST("", vehiculosH.Crear)
			vehicles.GET("/:id", vehiculosH.Obtener)
			vehicles.PUT("/:id", vehiculosH.Actualizar)
			vehicles.POST("/:id/repair", vehiculosH.RepararIndice)
		}

		api.GET("/orders/check/:formattedOrder", ordenesH.Verificar)
		api.GET("/orders/next", ordenesH.Proxima)
		api.GET("/receipts/next", ordenesH.ProximoRecibo)
	}

	return r
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Lunatico0/ControlCubiertas-Backend/internal/model"
)

func abrirDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Vehiculo{},
		&model.Cubierta{},
		&model.Historial{},
		&model.ContadorRecibo{},
	))
	return db
}

func crearCubierta(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	c := model.Cubierta{
		Code:         99,
		Brand:        "Firestone",
		Pattern:      "Direccional",
		SerialNumber: "XYZ999",
		Status:       model.EstadoNueva,
	}
	require.NoError(t, NewCubiertaRepository(db).Create(context.Background(), &c))
	return c.ID
}

// El replay ordena por fecha del evento, no por orden de inserción: una
// entrada retrofechada tiene que aparecer en su lugar cronológico.
func TestListByCubiertaOrdenaPorFecha(t *testing.T) {
	db := abrirDB(t)
	repo := NewHistorialRepository(db)
	cubiertaID := crearCubierta(t, db)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	reciente := model.Historial{CubiertaID: cubiertaID, Tipo: model.TipoEstado, Date: base.Add(48 * time.Hour)}
	require.NoError(t, repo.Create(context.Background(), &reciente))

	retrofechada := model.Historial{CubiertaID: cubiertaID, Tipo: model.TipoAlta, Date: base}
	require.NoError(t, repo.Create(context.Background(), &retrofechada))

	historial, err := repo.ListByCubierta(context.Background(), cubiertaID)
	require.NoError(t, err)
	require.Len(t, historial, 2)
	assert.Equal(t, model.TipoAlta, historial[0].Tipo)
	assert.Equal(t, model.TipoEstado, historial[1].Tipo)
}

func TestListByCubiertaDesempataPorInsercion(t *testing.T) {
	db := abrirDB(t)
	repo := NewHistorialRepository(db)
	cubiertaID := crearCubierta(t, db)
	fecha := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	primera := model.Historial{CubiertaID: cubiertaID, Tipo: model.TipoAsignacion, Date: fecha, CreatedAt: fecha}
	require.NoError(t, repo.Create(context.Background(), &primera))
	segunda := model.Historial{CubiertaID: cubiertaID, Tipo: model.TipoDesasignacion, Date: fecha, CreatedAt: fecha.Add(time.Second)}
	require.NoError(t, repo.Create(context.Background(), &segunda))

	historial, err := repo.ListByCubierta(context.Background(), cubiertaID)
	require.NoError(t, err)
	require.Len(t, historial, 2)
	assert.Equal(t, model.TipoAsignacion, historial[0].Tipo)
	assert.Equal(t, model.TipoDesasignacion, historial[1].Tipo)
}

// UpdateTx solo persiste los campos de marcado del protocolo de corrección;
// el contenido del evento escrito es inmutable.
func TestUpdateTxSoloCamposDeMarcado(t *testing.T) {
	db := abrirDB(t)
	repo := NewHistorialRepository(db)
	cubiertaID := crearCubierta(t, db)

	km := 150
	entrada := model.Historial{
		CubiertaID: cubiertaID,
		Tipo:       model.TipoDesasignacion,
		Date:       time.Now(),
		KmBaja:     &km,
	}
	require.NoError(t, repo.Create(context.Background(), &entrada))

	ahora := time.Now()
	otroKm := 999
	entrada.Flag = true
	entrada.Reason = "Corregido en la orden N°2026-000001"
	entrada.EditedFields = []string{"kmBaja"}
	entrada.CorrectedAt = &ahora
	entrada.Tipo = model.TipoCorreccionDesasignacion
	entrada.KmBaja = &otroKm // no debe persistirse

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return repo.UpdateTx(tx, &entrada)
	}))

	releida, err := repo.FindByID(context.Background(), entrada.ID)
	require.NoError(t, err)
	assert.True(t, releida.Flag)
	assert.Equal(t, "Corregido en la orden N°2026-000001", releida.Reason)
	assert.Equal(t, []string{"kmBaja"}, []string(releida.EditedFields))
	assert.Equal(t, model.TipoCorreccionDesasignacion, releida.Tipo)
	require.NotNil(t, releida.KmBaja)
	assert.Equal(t, 150, *releida.KmBaja, "event payload must stay immutable")
}

func TestExistsOrderNumber(t *testing.T) {
	db := abrirDB(t)
	repo := NewHistorialRepository(db)
	cubiertaID := crearCubierta(t, db)

	entrada := model.Historial{
		CubiertaID:  cubiertaID,
		Tipo:        model.TipoAsignacion,
		Date:        time.Now(),
		OrderNumber: "2026-000123",
	}
	require.NoError(t, repo.Create(context.Background(), &entrada))

	exists, err := repo.ExistsOrderNumber(context.Background(), "2026-000123")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsOrderNumber(context.Background(), "2026-000999")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestOrderNumbersByPrefix(t *testing.T) {
	db := abrirDB(t)
	repo := NewHistorialRepository(db)
	cubiertaID := crearCubierta(t, db)

	for _, orden := range []string{"2026-000004", "2026-000017", "2026-000017", "2025-999999"} {
		entrada := model.Historial{
			CubiertaID:  cubiertaID,
			Tipo:        model.TipoAsignacion,
			Date:        time.Now(),
			OrderNumber: orden,
		}
		require.NoError(t, repo.Create(context.Background(), &entrada))
	}

	numeros, err := repo.OrderNumbersByPrefix(context.Background(), "2026-")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"2026-000004", "2026-000017"}, numeros)
}

func TestContadorReciboSecuencia(t *testing.T) {
	db := abrirDB(t)
	repo := NewContadorReciboRepository(db)

	for esperado := 1; esperado <= 3; esperado++ {
		n, err := repo.Next(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, esperado, n)
	}

	// Otro punto de venta arranca su propia secuencia.
	n, err := repo.Next(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

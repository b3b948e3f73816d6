package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lunatico0/ControlCubiertas-Backend/internal/model"
)

type stubContadorRepo struct{ actual int }

func (r *stubContadorRepo) Next(_ context.Context, _ int) (int, error) {
	r.actual++
	return r.actual, nil
}

func newOrdenFixture() (OrdenService, *stubHistorialRepo) {
	historialRepo := newStubHistorialRepo()
	return NewOrdenService(historialRepo, &stubContadorRepo{}, 1), historialRepo
}

func conOrden(historialRepo *stubHistorialRepo, orden string) {
	historialRepo.agregar(&model.Historial{
		CubiertaID:  uuid.New(),
		Tipo:        model.TipoAsignacion,
		OrderNumber: orden,
	})
}

func TestExisteOrden(t *testing.T) {
	svc, historialRepo := newOrdenFixture()
	conOrden(historialRepo, "2026-000123")

	resp, err := svc.Existe(context.Background(), "2026-000123")
	require.NoError(t, err)
	assert.True(t, resp.Exists)

	resp, err = svc.Existe(context.Background(), "2026-000999")
	require.NoError(t, err)
	assert.False(t, resp.Exists)
}

func TestExisteOrdenFormatoInvalido(t *testing.T) {
	svc, _ := newOrdenFixture()

	for _, malformada := range []string{"2026-123", "26-000123", "2026000123", "orden-000123", ""} {
		_, err := svc.Existe(context.Background(), malformada)
		require.Error(t, err, "case %q", malformada)
		assert.Equal(t, KindValidation, kindOf(t, err))
	}
}

func TestProximaOrdenCorrelativa(t *testing.T) {
	svc, historialRepo := newOrdenFixture()
	anio := time.Now().Year()
	conOrden(historialRepo, fmt.Sprintf("%d-000004", anio))
	conOrden(historialRepo, fmt.Sprintf("%d-000017", anio))
	// Las de años anteriores no cuentan.
	conOrden(historialRepo, fmt.Sprintf("%d-999999", anio-1))

	resp, err := svc.Proxima(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%d-000018", anio), resp.OrderNumber)
}

func TestProximaOrdenSinHistorial(t *testing.T) {
	svc, _ := newOrdenFixture()

	resp, err := svc.Proxima(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%d-000001", time.Now().Year()), resp.OrderNumber)
}

func TestProximoReciboFormato(t *testing.T) {
	svc, _ := newOrdenFixture()

	resp, err := svc.ProximoRecibo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0001-00000001", resp.ReceiptNumber)

	resp, err = svc.ProximoRecibo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0001-00000002", resp.ReceiptNumber)
}

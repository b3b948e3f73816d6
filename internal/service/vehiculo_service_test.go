package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lunatico0/ControlCubiertas-Backend/internal/dto"
	"github.com/Lunatico0/ControlCubiertas-Backend/internal/model"
)

type vehiculoFixture struct {
	*cubiertaFixture
	svc VehiculoService
}

func newVehiculoFixture() *vehiculoFixture {
	base := newCubiertaFixture()
	return &vehiculoFixture{
		cubiertaFixture: base,
		svc:             NewVehiculoService(base.vehiculoRepo, base.cubiertaRepo, base.historialRepo, NewCubiertaLocks(), nil),
	}
}

func TestCrearVehiculoConCubiertas(t *testing.T) {
	f := newVehiculoFixture()
	c1 := f.cubierta(t, 1)
	c2 := f.cubierta(t, 2)

	resp, err := f.svc.Crear(context.Background(), dto.CrearVehiculoRequest{
		Brand:        "Scania",
		Mobile:       "Movil 03",
		LicensePlate: "AD512FK",
		Tires:        []string{c1.String(), c2.String()},
	})
	require.NoError(t, err)

	vehiculoID, _ := uuid.Parse(resp.ID)
	for _, cid := range []uuid.UUID{c1, c2} {
		cubierta, _ := f.cubiertaRepo.FindByID(context.Background(), cid)
		require.NotNil(t, cubierta.VehiculoID)
		assert.Equal(t, vehiculoID, *cubierta.VehiculoID)

		// Cada asignación queda en el historial, no solo en la proyección.
		historial, _ := f.historialRepo.ListByCubierta(context.Background(), cid)
		ultima := historial[len(historial)-1]
		assert.Equal(t, model.TipoAsignacion, ultima.Tipo)
	}
}

func TestCrearVehiculoConCubiertaOcupada(t *testing.T) {
	f := newVehiculoFixture()
	vehiculoID := f.vehiculo(t)
	cubiertaID := f.cubierta(t, 1)

	kmAlta := 0
	_, err := f.cubiertaFixture.svc.Asignar(context.Background(), cubiertaID, dto.AsignarVehiculoRequest{
		Vehicle: vehiculoID.String(),
		KmAlta:  &kmAlta,
	})
	require.NoError(t, err)

	_, err = f.svc.Crear(context.Background(), dto.CrearVehiculoRequest{
		Brand:        "Iveco",
		Mobile:       "Movil 04",
		LicensePlate: "AE100BB",
		Tires:        []string{cubiertaID.String()},
	})
	require.Error(t, err)
	assert.Equal(t, KindConflict, kindOf(t, err))
}

func TestActualizarVehiculoReconciliaSet(t *testing.T) {
	f := newVehiculoFixture()
	c1 := f.cubierta(t, 1)
	c2 := f.cubierta(t, 2)
	c3 := f.cubierta(t, 3)

	resp, err := f.svc.Crear(context.Background(), dto.CrearVehiculoRequest{
		Brand:        "Scania",
		Mobile:       "Movil 05",
		LicensePlate: "AF200CC",
		Tires:        []string{c1.String(), c2.String()},
	})
	require.NoError(t, err)
	vehiculoID, _ := uuid.Parse(resp.ID)

	// c1 sale, c2 queda, c3 entra.
	_, err = f.svc.Actualizar(context.Background(), vehiculoID, dto.ActualizarVehiculoRequest{
		Tires: []string{c2.String(), c3.String()},
	})
	require.NoError(t, err)

	quitada, _ := f.cubiertaRepo.FindByID(context.Background(), c1)
	assert.Nil(t, quitada.VehiculoID)

	retenida, _ := f.cubiertaRepo.FindByID(context.Background(), c2)
	require.NotNil(t, retenida.VehiculoID)

	agregada, _ := f.cubiertaRepo.FindByID(context.Background(), c3)
	require.NotNil(t, agregada.VehiculoID)
	assert.Equal(t, vehiculoID, *agregada.VehiculoID)

	// La retenida no genera eventos nuevos; la quitada y la agregada sí.
	historialRetenida, _ := f.historialRepo.ListByCubierta(context.Background(), c2)
	assert.Len(t, historialRetenida, 2) // Alta + Asignación original

	historialQuitada, _ := f.historialRepo.ListByCubierta(context.Background(), c1)
	ultima := historialQuitada[len(historialQuitada)-1]
	assert.Equal(t, model.TipoDesasignacion, ultima.Tipo)
}

func TestRepararIndice(t *testing.T) {
	f := newVehiculoFixture()
	vehiculoID := f.vehiculo(t)
	cubiertaID := f.cubierta(t, 1)

	kmAlta := 0
	_, err := f.cubiertaFixture.svc.Asignar(context.Background(), cubiertaID, dto.AsignarVehiculoRequest{
		Vehicle: vehiculoID.String(),
		KmAlta:  &kmAlta,
	})
	require.NoError(t, err)

	// Se rompe el índice a propósito y la reparación lo re-deriva.
	vehiculo, _ := f.vehiculoRepo.FindByID(context.Background(), vehiculoID)
	vehiculo.TireIDs = []string{"basura"}
	require.NoError(t, f.vehiculoRepo.Update(context.Background(), vehiculo))

	_, err = f.svc.RepararIndice(context.Background(), vehiculoID)
	require.NoError(t, err)

	reparado, _ := f.vehiculoRepo.FindByID(context.Background(), vehiculoID)
	assert.Equal(t, []string{cubiertaID.String()}, []string(reparado.TireIDs))
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lunatico0/ControlCubiertas-Backend/internal/dto"
	"github.com/Lunatico0/ControlCubiertas-Backend/internal/model"
)

type cubiertaFixture struct {
	svc           CubiertaService
	cubiertaRepo  *stubCubiertaRepo
	historialRepo *stubHistorialRepo
	vehiculoRepo  *stubVehiculoRepo
}

func newCubiertaFixture() *cubiertaFixture {
	f := &cubiertaFixture{
		cubiertaRepo:  newStubCubiertaRepo(),
		historialRepo: newStubHistorialRepo(),
		vehiculoRepo:  newStubVehiculoRepo(),
	}
	f.svc = NewCubiertaService(f.cubiertaRepo, f.historialRepo, f.vehiculoRepo, NewCubiertaLocks(), nil, nil)
	return f
}

func (f *cubiertaFixture) vehiculo(t *testing.T) uuid.UUID {
	t.Helper()
	v := model.Vehiculo{Brand: "Scania", Mobile: "Movil 07", LicensePlate: "AC491DM"}
	require.NoError(t, f.vehiculoRepo.Create(context.Background(), &v))
	return v.ID
}

func (f *cubiertaFixture) cubierta(t *testing.T, code int) uuid.UUID {
	t.Helper()
	resp, err := f.svc.Crear(context.Background(), dto.CrearCubiertaRequest{
		Code:         code,
		Brand:        "Firestone",
		Pattern:      "Direccional",
		SerialNumber: "XYZ999",
		Status:       model.EstadoNueva,
	})
	require.NoError(t, err)
	id, err := uuid.Parse(resp.ID)
	require.NoError(t, err)
	return id
}

func kindOf(t *testing.T, err error) Kind {
	t.Helper()
	var se *Error
	require.True(t, errors.As(err, &se), "expected service error, got %v", err)
	return se.Kind
}

func TestCrearCubierta(t *testing.T) {
	f := newCubiertaFixture()

	resp, err := f.svc.Crear(context.Background(), dto.CrearCubiertaRequest{
		Code:         99,
		Brand:        "Firestone",
		Pattern:      "Direccional",
		SerialNumber: "XYZ999",
		Status:       model.EstadoNueva,
	})
	require.NoError(t, err)
	assert.Equal(t, 99, resp.Code)
	assert.Equal(t, model.EstadoNueva, resp.Status)
	assert.Equal(t, 0, resp.Kilometers)
	assert.Nil(t, resp.Vehiculo)

	id, _ := uuid.Parse(resp.ID)
	historial, err := f.historialRepo.ListByCubierta(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, historial, 1)
	assert.Equal(t, model.TipoAlta, historial[0].Tipo)
	assert.Equal(t, model.ReciboPorDefecto, historial[0].ReceiptNumber)
}

func TestCrearCubiertaConKilometrajeInicial(t *testing.T) {
	f := newCubiertaFixture()

	resp, err := f.svc.Crear(context.Background(), dto.CrearCubiertaRequest{
		Code:         12,
		Brand:        "Michelin",
		Pattern:      "Traccion",
		SerialNumber: "MIC-012",
		Status:       model.EstadoRecapado1,
		Kilometers:   80000,
	})
	require.NoError(t, err)
	// El km inicial define la base de la proyección sin pasar por el fold.
	assert.Equal(t, 80000, resp.Kilometers)
}

func TestCrearCubiertaCodigoDuplicado(t *testing.T) {
	f := newCubiertaFixture()
	f.cubierta(t, 99)

	_, err := f.svc.Crear(context.Background(), dto.CrearCubiertaRequest{
		Code:         99,
		Brand:        "Pirelli",
		Pattern:      "Mixta",
		SerialNumber: "PIR-099",
		Status:       model.EstadoNueva,
	})
	require.Error(t, err)
	assert.Equal(t, KindConflict, kindOf(t, err))
}

func TestCrearCubiertaEstadoInvalido(t *testing.T) {
	f := newCubiertaFixture()

	_, err := f.svc.Crear(context.Background(), dto.CrearCubiertaRequest{
		Code:         1,
		Brand:        "Firestone",
		Pattern:      "Direccional",
		SerialNumber: "F-001",
		Status:       "Pinchada",
	})
	require.Error(t, err)
	assert.Equal(t, KindValidation, kindOf(t, err))
}

func TestCrearCubiertaConVehiculoEmiteAsignacion(t *testing.T) {
	f := newCubiertaFixture()
	vehiculoID := f.vehiculo(t)
	vehiculoStr := vehiculoID.String()

	resp, err := f.svc.Crear(context.Background(), dto.CrearCubiertaRequest{
		Code:         5,
		Brand:        "Firestone",
		Pattern:      "Direccional",
		SerialNumber: "F-005",
		Status:       model.EstadoNueva,
		Vehicle:      &vehiculoStr,
	})
	require.NoError(t, err)

	id, _ := uuid.Parse(resp.ID)
	historial, _ := f.historialRepo.ListByCubierta(context.Background(), id)
	require.Len(t, historial, 2)
	assert.Equal(t, model.TipoAlta, historial[0].Tipo)
	assert.Equal(t, model.TipoAsignacion, historial[1].Tipo)

	cubierta, _ := f.cubiertaRepo.FindByID(context.Background(), id)
	require.NotNil(t, cubierta.VehiculoID)
	assert.Equal(t, vehiculoID, *cubierta.VehiculoID)
}

func TestAsignarYDesasignar(t *testing.T) {
	f := newCubiertaFixture()
	vehiculoID := f.vehiculo(t)
	cubiertaID := f.cubierta(t, 99)

	kmAlta := 100
	_, err := f.svc.Asignar(context.Background(), cubiertaID, dto.AsignarVehiculoRequest{
		Vehicle:     vehiculoID.String(),
		KmAlta:      &kmAlta,
		OrderNumber: "2026-000001",
	})
	require.NoError(t, err)

	cubierta, _ := f.cubiertaRepo.FindByID(context.Background(), cubiertaID)
	require.NotNil(t, cubierta.VehiculoID)
	assert.Equal(t, vehiculoID, *cubierta.VehiculoID)

	kmBaja := 150
	resp, err := f.svc.Desasignar(context.Background(), cubiertaID, dto.DesasignarVehiculoRequest{
		KmBaja:      &kmBaja,
		OrderNumber: "2026-000002",
	})
	require.NoError(t, err)
	assert.Equal(t, 100, resp.KmAlta)
	assert.Equal(t, 150, resp.KmBaja)
	assert.Equal(t, 50, resp.KmRecorridos)

	cubierta, _ = f.cubiertaRepo.FindByID(context.Background(), cubiertaID)
	assert.Nil(t, cubierta.VehiculoID)
	assert.Equal(t, 50, cubierta.Kilometers)
}

func TestAsignarCubiertaYaAsignada(t *testing.T) {
	f := newCubiertaFixture()
	vehiculoID := f.vehiculo(t)
	cubiertaID := f.cubierta(t, 99)

	kmAlta := 100
	_, err := f.svc.Asignar(context.Background(), cubiertaID, dto.AsignarVehiculoRequest{
		Vehicle: vehiculoID.String(),
		KmAlta:  &kmAlta,
	})
	require.NoError(t, err)

	antes := len(f.historialRepo.entradas)
	_, err = f.svc.Asignar(context.Background(), cubiertaID, dto.AsignarVehiculoRequest{
		Vehicle: vehiculoID.String(),
		KmAlta:  &kmAlta,
	})
	require.Error(t, err)
	assert.Equal(t, KindConflict, kindOf(t, err))
	assert.Len(t, f.historialRepo.entradas, antes, "no event should be appended on conflict")
}

func TestAsignarVehiculoInexistente(t *testing.T) {
	f := newCubiertaFixture()
	cubiertaID := f.cubierta(t, 99)

	kmAlta := 100
	_, err := f.svc.Asignar(context.Background(), cubiertaID, dto.AsignarVehiculoRequest{
		Vehicle: uuid.New().String(),
		KmAlta:  &kmAlta,
	})
	require.Error(t, err)
	assert.Equal(t, KindNotFound, kindOf(t, err))
}

func TestDesasignarSinAsignacion(t *testing.T) {
	f := newCubiertaFixture()
	cubiertaID := f.cubierta(t, 99)

	kmBaja := 10
	_, err := f.svc.Desasignar(context.Background(), cubiertaID, dto.DesasignarVehiculoRequest{KmBaja: &kmBaja})
	require.Error(t, err)
	assert.Equal(t, KindConflict, kindOf(t, err))
}

func TestDesasignarKilometrajeNegativo(t *testing.T) {
	f := newCubiertaFixture()
	vehiculoID := f.vehiculo(t)
	cubiertaID := f.cubierta(t, 99)

	kmAlta := 500
	_, err := f.svc.Asignar(context.Background(), cubiertaID, dto.AsignarVehiculoRequest{
		Vehicle: vehiculoID.String(),
		KmAlta:  &kmAlta,
	})
	require.NoError(t, err)

	antes := len(f.historialRepo.entradas)
	kmBaja := 100
	_, err = f.svc.Desasignar(context.Background(), cubiertaID, dto.DesasignarVehiculoRequest{KmBaja: &kmBaja})
	require.Error(t, err)
	assert.Equal(t, KindValidation, kindOf(t, err))
	assert.Len(t, f.historialRepo.entradas, antes, "no event should be appended on validation failure")

	// La proyección sigue intacta: asignada y sin km acumulados.
	cubierta, _ := f.cubiertaRepo.FindByID(context.Background(), cubiertaID)
	require.NotNil(t, cubierta.VehiculoID)
	assert.Equal(t, 0, cubierta.Kilometers)
}

func TestCambiarEstado(t *testing.T) {
	f := newCubiertaFixture()
	cubiertaID := f.cubierta(t, 99)

	resp, err := f.svc.CambiarEstado(context.Background(), cubiertaID, dto.CambiarEstadoRequest{
		Status:      model.EstadoARecapar,
		OrderNumber: "2026-000003",
	})
	require.NoError(t, err)
	assert.Equal(t, model.EstadoNueva, resp.PreviousStatus)
	assert.Equal(t, model.EstadoARecapar, resp.Cubierta.Status)

	_, err = f.svc.CambiarEstado(context.Background(), cubiertaID, dto.CambiarEstadoRequest{Status: "Quemada"})
	require.Error(t, err)
	assert.Equal(t, KindValidation, kindOf(t, err))
}

func TestCorregirDatos(t *testing.T) {
	f := newCubiertaFixture()
	cubiertaID := f.cubierta(t, 99)

	nuevoCodigo := 123
	resp, err := f.svc.CorregirDatos(context.Background(), cubiertaID, dto.CorregirDatosRequest{
		Code:        &nuevoCodigo,
		Brand:       "Michelin",
		Reason:      "Error de carga",
		OrderNumber: "2026-000004",
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"code", "brand"}, resp.EditedFields)
	assert.Equal(t, 99, resp.PreviousData["code"])
	assert.Equal(t, 123, resp.Cubierta.Code)
	assert.Equal(t, "Michelin", resp.Cubierta.Brand)

	// Queda registrada como Corrección-Alta con flag, el fold la ignora.
	historial, _ := f.historialRepo.ListByCubierta(context.Background(), cubiertaID)
	ultima := historial[len(historial)-1]
	assert.Equal(t, model.TipoCorreccionAlta, ultima.Tipo)
	assert.True(t, ultima.Flag)
	assert.Nil(t, ultima.Corrects)
}

func TestCorregirDatosSinCambios(t *testing.T) {
	f := newCubiertaFixture()
	cubiertaID := f.cubierta(t, 99)

	_, err := f.svc.CorregirDatos(context.Background(), cubiertaID, dto.CorregirDatosRequest{
		Brand:       "Firestone",
		Reason:      "sin cambios reales",
		OrderNumber: "2026-000005",
	})
	require.Error(t, err)
	assert.Equal(t, KindValidation, kindOf(t, err))
}

func TestCorregirDatosCodigoDuplicado(t *testing.T) {
	f := newCubiertaFixture()
	f.cubierta(t, 7)
	cubiertaID := f.cubierta(t, 99)

	duplicado := 7
	_, err := f.svc.CorregirDatos(context.Background(), cubiertaID, dto.CorregirDatosRequest{
		Code:        &duplicado,
		Reason:      "renumeración",
		OrderNumber: "2026-000006",
	})
	require.Error(t, err)
	assert.Equal(t, KindConflict, kindOf(t, err))
}

func TestObtenerPorIDInexistente(t *testing.T) {
	f := newCubiertaFixture()

	_, err := f.svc.ObtenerPorID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, KindNotFound, kindOf(t, err))
}

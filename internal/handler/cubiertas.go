package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Lunatico0/ControlCubiertas-Backend/internal/apierror"
	"github.com/Lunatico0/ControlCubiertas-Backend/internal/dto"
	"github.com/Lunatico0/ControlCubiertas-Backend/internal/service"
)

type CubiertasHandler struct {
	svc          service.CubiertaService
	historialSvc service.HistorialService
}

func NewCubiertasHandler(svc service.CubiertaService, historialSvc service.HistorialService) *CubiertasHandler {
	return &CubiertasHandler{svc: svc, historialSvc: historialSvc}
}

func (h *CubiertasHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CubiertasHandler) Crear(c *gin.Context) {
	var req dto.CrearCubiertaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CubiertasHandler) Obtener(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CubiertasHandler) Asignar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.AsignarVehiculoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Asignar(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CubiertasHandler) Desasignar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.DesasignarVehiculoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Desasignar(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CubiertasHandler) CambiarEstado(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.CambiarEstadoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CambiarEstado(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CubiertasHandler) CorregirDatos(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.CorregirDatosRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CorregirDatos(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CubiertasHandler) ListarHistorial(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.historialSvc.Listar(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CubiertasHandler) CorregirHistorial(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	historialID, ok := parseID(c, "historyId")
	if !ok {
		return
	}
	var req dto.CorregirHistorialRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.historialSvc.Corregir(c.Request.Context(), id, historialID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CubiertasHandler) DeshacerHistorial(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	historialID, ok := parseID(c, "historyId")
	if !ok {
		return
	}
	var req dto.DeshacerHistorialRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.historialSvc.Deshacer(c.Request.Context(), id, historialID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return uuid.Nil, false
	}
	return id, true
}

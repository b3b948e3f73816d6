package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Lunatico0/ControlCubiertas-Backend/internal/service"
)

type OrdenesHandler struct{ svc service.OrdenService }

func NewOrdenesHandler(svc service.OrdenService) *OrdenesHandler {
	return &OrdenesHandler{svc: svc}
}

func (h *OrdenesHandler) Verificar(c *gin.Context) {
	resp, err := h.svc.Existe(c.Request.Context(), c.Param("formattedOrder"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdenesHandler) Proxima(c *gin.Context) {
	resp, err := h.svc.Proxima(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdenesHandler) ProximoRecibo(c *gin.Context) {
	resp, err := h.svc.ProximoRecibo(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

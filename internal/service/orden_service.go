package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Lunatico0/ControlCubiertas-Backend/internal/dto"
	"github.com/Lunatico0/ControlCubiertas-Backend/internal/repository"
)

// formato AAAA-NNNNNN, ej. 2026-000123
var ordenRegex = regexp.MustCompile(`^\d{4}-\d{6}$`)

// OrdenService resuelve numeración de órdenes de trabajo y recibos. Las
// órdenes son correlativas por año sobre lo ya registrado en el historial;
// los recibos salen de un contador atómico por punto de venta.
type OrdenService interface {
	Existe(ctx context.Context, formattedOrder string) (*dto.OrdenCheckResponse, error)
	Proxima(ctx context.Context) (*dto.ProximaOrdenResponse, error)
	ProximoRecibo(ctx context.Context) (*dto.ReciboResponse, error)
}

type ordenService struct {
	historialRepo repository.HistorialRepository
	contadorRepo  repository.ContadorReciboRepository
	puntoDeVenta  int
}

func NewOrdenService(
	historialRepo repository.HistorialRepository,
	contadorRepo repository.ContadorReciboRepository,
	puntoDeVenta int,
) OrdenService {
	if puntoDeVenta <= 0 {
		puntoDeVenta = 1
	}
	return &ordenService{
		historialRepo: historialRepo,
		contadorRepo:  contadorRepo,
		puntoDeVenta:  puntoDeVenta,
	}
}

func (s *ordenService) Existe(ctx context.Context, formattedOrder string) (*dto.OrdenCheckResponse, error) {
	if !ordenRegex.MatchString(formattedOrder) {
		return nil, Validation("Número de orden inválido, formato esperado AAAA-NNNNNN")
	}
	exists, err := s.historialRepo.ExistsOrderNumber(ctx, formattedOrder)
	if err != nil {
		return nil, err
	}
	return &dto.OrdenCheckResponse{Exists: exists}, nil
}

func (s *ordenService) Proxima(ctx context.Context) (*dto.ProximaOrdenResponse, error) {
	prefijo := strconv.Itoa(time.Now().Year()) + "-"
	ordenes, err := s.historialRepo.OrderNumbersByPrefix(ctx, prefijo)
	if err != nil {
		return nil, err
	}

	max := 0
	for _, orden := range ordenes {
		parte := strings.TrimPrefix(orden, prefijo)
		n, err := strconv.Atoi(parte)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}

	return &dto.ProximaOrdenResponse{
		OrderNumber: fmt.Sprintf("%s%06d", prefijo, max+1),
	}, nil
}

func (s *ordenService) ProximoRecibo(ctx context.Context) (*dto.ReciboResponse, error) {
	numero, err := s.contadorRepo.Next(ctx, s.puntoDeVenta)
	if err != nil {
		return nil, err
	}
	return &dto.ReciboResponse{
		ReceiptNumber: fmt.Sprintf("%04d-%08d", s.puntoDeVenta, numero),
	}, nil
}

package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/apperror"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/dto"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/model"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/repository"

	"github.com/rs/zerolog/log"
)

var registerCodeRe = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_-]{1,31}$`)

// RegisterService is the cash register registry.
type RegisterService interface {
	Create(ctx context.Context, req dto.CreateRegisterRequest) (*dto.RegisterResponse, error)
	Get(ctx context.Context, code string) (*dto.RegisterResponse, error)
	List(ctx context.Context, activeOnly bool) ([]dto.RegisterResponse, error)
	Update(ctx context.Context, code string, req dto.UpdateRegisterRequest) (*dto.RegisterResponse, error)
	// Deactivate only blocks new sessions; an OPEN session is left untouched.
	Deactivate(ctx context.Context, code string) error
	Reactivate(ctx context.Context, code string) error
	// ResolveWarehouse returns the warehouse a sale at code is attributed to.
	// requested may be nil to take the register's bound warehouse.
	ResolveWarehouse(ctx context.Context, code string, requested *int64) (int64, error)
}

type registerService struct {
	repo repository.RegisterRepository
}

func NewRegisterService(repo repository.RegisterRepository) RegisterService {
	return &registerService{repo: repo}
}

// ── Create ────────────────────────────────────────────────────────────────────

func (s *registerService) Create(ctx context.Context, req dto.CreateRegisterRequest) (*dto.RegisterResponse, error) {
	code := normalizeCode(req.Code)
	if !registerCodeRe.MatchString(code) {
		return nil, apperror.Validation("invalid register code",
			apperror.Field("code", "must match %s", registerCodeRe.String()))
	}
	reg := &model.CashRegister{
		Code:                         code,
		Name:                         strings.TrimSpace(req.Name),
		WarehouseID:                  req.WarehouseID,
		AllowManualWarehouseOverride: req.AllowManualWarehouseOverride,
		IsActive:                     true,
		Notes:                        req.Notes,
	}
	if err := s.repo.Create(ctx, reg); err != nil {
		if repository.IsDuplicateKeyErr(err) {
			return nil, apperror.Conflict("register already exists").WithRegister(code)
		}
		return nil, fmt.Errorf("create register: %w", err)
	}
	log.Info().Str("register_code", code).Int64("warehouse_id", reg.WarehouseID).Msg("register created")
	return toRegisterResponse(reg), nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *registerService) Get(ctx context.Context, code string) (*dto.RegisterResponse, error) {
	reg, err := s.find(ctx, code)
	if err != nil {
		return nil, err
	}
	return toRegisterResponse(reg), nil
}

func (s *registerService) List(ctx context.Context, activeOnly bool) ([]dto.RegisterResponse, error) {
	regs, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list registers: %w", err)
	}
	out := make([]dto.RegisterResponse, 0, len(regs))
	for i := range regs {
		out = append(out, *toRegisterResponse(&regs[i]))
	}
	return out, nil
}

// ── Update ────────────────────────────────────────────────────────────────────

func (s *registerService) Update(ctx context.Context, code string, req dto.UpdateRegisterRequest) (*dto.RegisterResponse, error) {
	reg, err := s.find(ctx, code)
	if err != nil {
		return nil, err
	}
	reg.Name = strings.TrimSpace(req.Name)
	reg.WarehouseID = req.WarehouseID
	reg.AllowManualWarehouseOverride = req.AllowManualWarehouseOverride
	reg.Notes = req.Notes
	if err := s.repo.Update(ctx, reg); err != nil {
		return nil, fmt.Errorf("update register: %w", err)
	}
	return toRegisterResponse(reg), nil
}

func (s *registerService) Deactivate(ctx context.Context, code string) error {
	return s.setActive(ctx, code, false)
}

func (s *registerService) Reactivate(ctx context.Context, code string) error {
	return s.setActive(ctx, code, true)
}

func (s *registerService) setActive(ctx context.Context, code string, active bool) error {
	code = normalizeCode(code)
	if err := s.repo.SetActive(ctx, code, active); err != nil {
		if repository.IsNotFound(err) {
			return apperror.NotFound("register not found").WithRegister(code)
		}
		return fmt.Errorf("set register active: %w", err)
	}
	log.Info().Str("register_code", code).Bool("active", active).Msg("register activation changed")
	return nil
}

// ── ResolveWarehouse ──────────────────────────────────────────────────────────

func (s *registerService) ResolveWarehouse(ctx context.Context, code string, requested *int64) (int64, error) {
	reg, err := s.find(ctx, code)
	if err != nil {
		return 0, err
	}
	if requested == nil || *requested == reg.WarehouseID {
		return reg.WarehouseID, nil
	}
	if !reg.AllowManualWarehouseOverride {
		return 0, apperror.Validation("warehouse override not allowed",
			apperror.Field("warehouse_id", "register is bound to warehouse %d", reg.WarehouseID)).
			WithRegister(reg.Code)
	}
	return *requested, nil
}

func (s *registerService) find(ctx context.Context, code string) (*model.CashRegister, error) {
	code = normalizeCode(code)
	reg, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("register not found").WithRegister(code)
		}
		return nil, fmt.Errorf("find register: %w", err)
	}
	return reg, nil
}

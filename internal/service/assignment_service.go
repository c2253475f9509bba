package service

import (
	"context"
	"fmt"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/apperror"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/dto"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/model"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/repository"

	"github.com/rs/zerolog/log"
)

// AssignmentService maps operators to the registers they may work.
// Assignments are independent of session state.
type AssignmentService interface {
	Assign(ctx context.Context, req dto.AssignRequest) (*dto.AssignmentResponse, error)
	Unassign(ctx context.Context, operatorID int64, code string) error
	ListByOperator(ctx context.Context, operatorID int64) ([]dto.AssignmentResponse, error)
	ListByRegister(ctx context.Context, code string) ([]dto.AssignmentResponse, error)
	SetDefault(ctx context.Context, operatorID int64, code string) (*dto.AssignmentResponse, error)
	GetDefault(ctx context.Context, operatorID int64) (*dto.AssignmentResponse, error)
}

type assignmentService struct {
	repo      repository.AssignmentRepository
	registers repository.RegisterRepository
}

func NewAssignmentService(repo repository.AssignmentRepository, registers repository.RegisterRepository) AssignmentService {
	return &assignmentService{repo: repo, registers: registers}
}

func (s *assignmentService) Assign(ctx context.Context, req dto.AssignRequest) (*dto.AssignmentResponse, error) {
	code := normalizeCode(req.CashRegisterCode)
	if _, err := s.registers.FindByCode(ctx, code); err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("register not found").WithRegister(code)
		}
		return nil, fmt.Errorf("find register: %w", err)
	}

	a := &model.CashRegisterAssignment{
		OperatorID:       req.OperatorID,
		CashRegisterCode: code,
		IsDefault:        req.IsDefault,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		if repository.IsDuplicateKeyErr(err) {
			if _, ferr := s.repo.Find(ctx, req.OperatorID, code); ferr == nil {
				return nil, apperror.Conflict("operator already assigned to register").WithRegister(code)
			}
			return nil, errDefaultRace(code)
		}
		return nil, fmt.Errorf("create assignment: %w", err)
	}
	log.Info().Int64("operator_id", a.OperatorID).Str("register_code", code).Bool("default", a.IsDefault).Msg("operator assigned")
	return toAssignmentResponse(a), nil
}

func (s *assignmentService) Unassign(ctx context.Context, operatorID int64, code string) error {
	code = normalizeCode(code)
	if err := s.repo.Delete(ctx, operatorID, code); err != nil {
		if repository.IsNotFound(err) {
			return apperror.NotFound("assignment not found").WithRegister(code)
		}
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}

func (s *assignmentService) ListByOperator(ctx context.Context, operatorID int64) ([]dto.AssignmentResponse, error) {
	list, err := s.repo.ListByOperator(ctx, operatorID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return toAssignmentResponses(list), nil
}

func (s *assignmentService) ListByRegister(ctx context.Context, code string) ([]dto.AssignmentResponse, error) {
	list, err := s.repo.ListByRegister(ctx, normalizeCode(code))
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return toAssignmentResponses(list), nil
}

// SetDefault clears the operator's previous default in the same transaction.
func (s *assignmentService) SetDefault(ctx context.Context, operatorID int64, code string) (*dto.AssignmentResponse, error) {
	code = normalizeCode(code)
	if err := s.repo.SetDefault(ctx, operatorID, code); err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("assignment not found").WithRegister(code)
		}
		if repository.IsDuplicateKeyErr(err) {
			return nil, errDefaultRace(code)
		}
		return nil, fmt.Errorf("set default assignment: %w", err)
	}
	a, err := s.repo.Find(ctx, operatorID, code)
	if err != nil {
		return nil, fmt.Errorf("reload assignment: %w", err)
	}
	return toAssignmentResponse(a), nil
}

func (s *assignmentService) GetDefault(ctx context.Context, operatorID int64) (*dto.AssignmentResponse, error) {
	a, err := s.repo.FindDefault(ctx, operatorID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("operator has no default register")
		}
		return nil, fmt.Errorf("find default assignment: %w", err)
	}
	return toAssignmentResponse(a), nil
}

// errDefaultRace reports a default switch that lost to a concurrent one.
func errDefaultRace(code string) error {
	return apperror.Conflict("operator default register changed concurrently, retry").WithRegister(code)
}

func toAssignmentResponses(list []model.CashRegisterAssignment) []dto.AssignmentResponse {
	out := make([]dto.AssignmentResponse, 0, len(list))
	for i := range list {
		out = append(out, *toAssignmentResponse(&list[i]))
	}
	return out
}

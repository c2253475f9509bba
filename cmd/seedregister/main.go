// Command seedregister creates or updates a demo register and makes it the
// operator's default.
// Usage: go run ./cmd/seedregister -code CAJA-01 -operator 7
package main

import (
	"context"
	"flag"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/apperror"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/config"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/dto"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/infra"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/repository"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/service"

	"github.com/rs/zerolog/log"
)

func main() {
	code := flag.String("code", "CAJA-01", "register code")
	name := flag.String("name", "Caja principal", "register name")
	warehouse := flag.Int64("warehouse", 1, "bound warehouse id")
	operator := flag.Int64("operator", 1, "operator assigned as default (0 skips)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	ctx := context.Background()
	registerRepo := repository.NewRegisterRepository(db)
	registers := service.NewRegisterService(registerRepo)
	assignments := service.NewAssignmentService(repository.NewAssignmentRepository(db), registerRepo)

	reg, err := registers.Create(ctx, dto.CreateRegisterRequest{Code: *code, Name: *name, WarehouseID: *warehouse})
	if apperror.KindOf(err) == apperror.KindConflict {
		reg, err = registers.Update(ctx, *code, dto.UpdateRegisterRequest{Name: *name, WarehouseID: *warehouse})
		if err == nil {
			err = registers.Reactivate(ctx, reg.Code)
		}
	}
	if err != nil {
		log.Fatal().Err(err).Str("code", *code).Msg("seed register")
	}
	log.Info().Str("code", reg.Code).Int64("warehouse", reg.WarehouseID).Msg("register ready")

	if *operator <= 0 {
		return
	}
	_, err = assignments.Assign(ctx, dto.AssignRequest{OperatorID: *operator, CashRegisterCode: reg.Code, IsDefault: true})
	if apperror.KindOf(err) == apperror.KindConflict {
		_, err = assignments.SetDefault(ctx, *operator, reg.Code)
	}
	if err != nil {
		log.Fatal().Err(err).Int64("operator", *operator).Msg("seed assignment")
	}
	log.Info().Int64("operator", *operator).Str("code", reg.Code).Msg("default assignment ready")
}

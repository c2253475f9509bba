package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateRegisterRequest struct {
	Code                         string  `json:"code"                            validate:"required,max=32"`
	Name                         string  `json:"name"                            validate:"required,max=120"`
	WarehouseID                  int64   `json:"warehouse_id"                    validate:"required,gt=0"`
	AllowManualWarehouseOverride bool    `json:"allow_manual_warehouse_override"`
	Notes                        *string `json:"notes"`
}

// UpdateRegisterRequest replaces the mutable fields. The code never changes.
type UpdateRegisterRequest struct {
	Name                         string  `json:"name"                            validate:"required,max=120"`
	WarehouseID                  int64   `json:"warehouse_id"                    validate:"required,gt=0"`
	AllowManualWarehouseOverride bool    `json:"allow_manual_warehouse_override"`
	Notes                        *string `json:"notes"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type RegisterResponse struct {
	Code                         string  `json:"code"`
	Name                         string  `json:"name"`
	WarehouseID                  int64   `json:"warehouse_id"`
	AllowManualWarehouseOverride bool    `json:"allow_manual_warehouse_override"`
	IsActive                     bool    `json:"is_active"`
	Notes                        *string `json:"notes"`
	CreatedAt                    string  `json:"created_at"`
	UpdatedAt                    string  `json:"updated_at"`
}

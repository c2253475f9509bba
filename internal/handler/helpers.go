package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/apierror"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/apperror"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/middleware"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// decimal.Decimal validates as a number so gt=0 and required work on money.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// Report violations by their JSON names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
}

// bindAndValidate binds the JSON body and runs the validator tags. On failure
// it writes the response and returns false.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid query: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	err := validate.Struct(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return false
	}
	fields := make([]apperror.FieldViolation, 0, len(verrs))
	for _, fe := range verrs {
		msg := fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		fields = append(fields, apperror.FieldViolation{Field: fe.Field(), Message: msg})
	}
	c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
	return false
}

// respondError maps domain errors to statuses. Anything else is handed to
// the ErrorHandler middleware as a 500.
func respondError(c *gin.Context, err error) {
	e, ok := apperror.As(err)
	if !ok {
		_ = c.Error(err)
		return
	}
	status := http.StatusInternalServerError
	switch e.Kind {
	case apperror.KindValidation:
		status = http.StatusUnprocessableEntity
	case apperror.KindConflict, apperror.KindInvalidState:
		status = http.StatusConflict
	case apperror.KindDependency:
		status = http.StatusServiceUnavailable
	case apperror.KindNotFound:
		status = http.StatusNotFound
	case apperror.KindForbidden:
		status = http.StatusForbidden
	default:
		_ = c.Error(err)
		return
	}
	c.JSON(status, apierror.FromError(e))
}

func actorFrom(c *gin.Context) service.Actor {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return service.Actor{}
	}
	return service.Actor{OperatorID: claims.OperatorID, Role: claims.Role}
}

// int64Param parses a positive path parameter, writing a 400 when it is not.
func int64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, apierror.New("invalid "+name))
		return 0, false
	}
	return id, true
}

package handler

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/clinicbook/booking-api/internal/model"
)

// The department tag validates request fields against the fixed department
// table, so malformed requests are rejected at binding time.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("department", func(fl validator.FieldLevel) bool {
			return model.ValidDepartment(fl.Field().String())
		})
	}
}

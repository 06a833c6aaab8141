package server

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/apikey"
)

var registerOnce sync.Once

// registerValidators adds the custom binding tags used by request structs:
// "apikey" checks the API key shape.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("apikey", func(fl validator.FieldLevel) bool {
			return apikey.ValidFormat(fl.Field().String())
		})
	})
}

package handlers

import (
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	mobilePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
	registerOnce  sync.Once
)

// RegisterValidators adds the console's custom binding tags to gin's validator.
// It must run before any request binds a UserInput.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
			return mobilePattern.MatchString(fl.Field().String())
		})
	})
}

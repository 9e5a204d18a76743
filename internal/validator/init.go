package validator

import (
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/engine"
	"errors"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	// Initialize validation
	validate = validator.New(validator.WithRequiredStructEnabled())
	if err := register(validate); err != nil {
		panic(err)
	}
}

func GetValidator() *validator.Validate {
	return validate
}

// RegisterGin installs the custom tags on the validator gin binds requests with.
func RegisterGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding validator is not go-playground/validator")
	}
	return register(v)
}

func register(v *validator.Validate) error {
	return v.RegisterValidation("game_mode", func(fl validator.FieldLevel) bool {
		return engine.Mode(fl.Field().String()).Valid()
	})
}

package msgtemplate

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/sonhodourado/secretaria/core"
)

var (
	channelTag  = "channel"
	channelText = "channel must be one of: email, messaging"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(channelTag, channelValidation)
	core.RegisterCustomTranslation(validate, translator, channelTag, channelText)
}

func channelValidation(fl validator.FieldLevel) bool {
	return Channel(fl.Field().String()).Valid()
}

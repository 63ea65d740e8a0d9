package Controllers

import (
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Validate is the shared validator for request bodies. Tier schedule rules
// live in Credit.ValidateSchedule; this only covers field-level constraints.
var Validate *validator.Validate
var translator ut.Translator

func init() {
	Validate = validator.New()

	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, translator)
}

// TranslateValidationError turns validator errors into a readable message.
func TranslateValidationError(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return err.Error()
	}
	return errs[0].Translate(translator)
}

package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// custom validation tags
const notBlankTag = "notblank"

// requestValidator checks request bodies and renders failures in English,
// keyed by the JSON field name.
type requestValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func newRequestValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	_en := en.New()
	uni := ut.New(_en, _en)
	trans, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	// Use JSON tag names for errors instead of Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation(notBlankTag, notBlankValidation)
	_ = v.RegisterTranslation(notBlankTag, trans,
		func(ut.Translator) error { return nil },
		func(_ ut.Translator, fe validator.FieldError) string {
			return fe.Field() + " cannot be blank"
		},
	)

	return &requestValidator{validate: v, translator: trans}
}

// Validate returns one message per failing field, or nil.
func (rv *requestValidator) Validate(req interface{}) map[string]string {
	err := rv.validate.Struct(req)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return map[string]string{"_": err.Error()}
	}

	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Translate(rv.translator)
	}
	return fields
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST BODIES
// ══════════════════════════════════════════════════════════════════════════════

type addStudentRequest struct {
	NIS        string `json:"nis" validate:"max=32"`
	Name       string `json:"name" validate:"required,notblank,max=120"`
	GradeLevel string `json:"gradeLevel" validate:"max=32"`
	Contact    string `json:"contact" validate:"max=120"`
}

type addAssessmentRequest struct {
	Title       string `json:"title" validate:"required,notblank,max=160"`
	Subject     string `json:"subject" validate:"max=80"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	MaxScore    int    `json:"maxScore" validate:"gt=0"`
	Description string `json:"description" validate:"max=1000"`
}

type upsertGradeRequest struct {
	StudentID    string   `json:"studentId" validate:"required"`
	AssessmentID string   `json:"assessmentId" validate:"required"`
	Score        *float64 `json:"score" validate:"required"`
	Feedback     string   `json:"feedback" validate:"max=2000"`
}

type draftFeedbackRequest struct {
	StudentID    string   `json:"studentId" validate:"required"`
	AssessmentID string   `json:"assessmentId" validate:"required"`
	Score        *float64 `json:"score" validate:"required"`
}

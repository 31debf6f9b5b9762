package middleware

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/wms-platform/business-rules-service/pkg/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

var (
	currencyCodeRegex = regexp.MustCompile(`^[A-Za-z]{3}$`)
	orderRefRegex     = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)
)

var customValidations = map[string]validator.Func{
	"currency_code": validateCurrencyCode,
	"order_ref":     validateOrderRef,
}

// InitValidator registers the custom validations on a standalone validator
// and on gin's binding engine, and reports field names by their JSON tag.
func InitValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		register(validate)

		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			register(v)
		}
	})
	return validate
}

// GetValidator returns the singleton validator instance
func GetValidator() *validator.Validate {
	return InitValidator()
}

func register(v *validator.Validate) {
	for tag, fn := range customValidations {
		_ = v.RegisterValidation(tag, fn)
	}
	v.RegisterTagNameFunc(jsonTagName)
}

func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

// Three-letter code in either case. The high-value rule itself matches
// case-sensitively, so "thb" must be accepted here and simply not match.
func validateCurrencyCode(fl validator.FieldLevel) bool {
	return currencyCodeRegex.MatchString(fl.Field().String())
}

func validateOrderRef(fl validator.FieldLevel) bool {
	return orderRefRegex.MatchString(fl.Field().String())
}

// ValidationErrorFormatter formats validation errors into a field path map,
// e.g. "items[1].currency" -> "is required"
func ValidationErrorFormatter(err error) map[string]string {
	fields := make(map[string]string)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			fields[fieldPath(e)] = formatValidationError(e)
		}
	}

	return fields
}

func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "currency_code":
		return "must be a three-letter currency code"
	case "order_ref":
		return "must be an order reference of letters, digits, '-' or '_' (max 64)"
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "is invalid"
	}
}

// BindAndValidate binds the JSON request body and validates it
func BindAndValidate(c *gin.Context, obj any) *errors.AppError {
	if err := c.ShouldBindJSON(obj); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return errors.ErrValidationWithFields("validation failed", ValidationErrorFormatter(validationErrors))
		}
		return errors.ErrBadRequest("invalid request body: " + err.Error())
	}
	return nil
}

// ValidateVar validates a single value such as a path parameter
func ValidateVar(field string, value any, tag string) *errors.AppError {
	if err := GetValidator().Var(value, tag); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok && len(validationErrors) > 0 {
			return errors.ErrValidationWithFields("validation failed", map[string]string{
				field: formatValidationError(validationErrors[0]),
			})
		}
		return errors.ErrBadRequest("invalid " + field)
	}
	return nil
}

// SanitizeString removes null bytes and surrounding whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}

// InputSanitizer sanitizes query parameters
func InputSanitizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Request.URL.Query()
		for key, values := range query {
			for i, v := range values {
				values[i] = SanitizeString(v)
			}
			query[key] = values
		}
		c.Request.URL.RawQuery = query.Encode()

		c.Next()
	}
}

// ContentType rejects non-JSON bodies on write methods
func ContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case "POST", "PUT", "PATCH":
			contentType := c.GetHeader("Content-Type")
			if !strings.HasPrefix(contentType, "application/json") && c.Request.ContentLength > 0 {
				AbortWithAppError(c, errors.NewAppError(
					errors.CodeInvalidContentType, "Content-Type must be application/json", 415))
				return
			}
		}
		c.Next()
	}
}

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator"
	"github.com/meghashyamc/apidoxsearch/corpus"
	"github.com/meghashyamc/apidoxsearch/logger"
)

// MessageTypeConsiderCaching asks for the documentation tree of a page to be cached.
const MessageTypeConsiderCaching = "CONSIDER_CACHING"

type Validator struct {
	validator                *validator.Validate
	logger                   logger.Logger
	tagValidationDetailsOnce sync.Once
	tagValidationDetailsMap  map[string]tagValidationDetails
}

type tagValidationDetails struct {
	validatorFunc validator.Func
	err           error
}

func New(logger logger.Logger) (*Validator, error) {
	validator := &Validator{validator: validator.New(), logger: logger}
	validator.validator.RegisterTagNameFunc(useJSONFieldNames)
	if err := validator.registerCustomValidatorsForTags(); err != nil {
		return nil, err
	}

	return validator, nil
}

func (v *Validator) Validate(i any) error {

	if err := v.validator.Struct(i); err != nil {
		v.logger.Warn("validation failed", "err", err.Error())
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {

			tagValidationDetails, ok := v.getTagValidationDetails()[validationErrs[0].Tag()]
			if ok {
				return tagValidationDetails.err
			}

			switch validationErrs[0].Tag() {
			case "required":
				return fmt.Errorf("missing required field '%s'", validationErrs[0].Field())

			case "min", "max":
				return fmt.Errorf("value or length of field '%s' is not in the expected range", validationErrs[0].Field())

			case "url":
				return fmt.Errorf("field '%s' is not a valid url", validationErrs[0].Field())
			}
		}
		return err
	}
	return nil
}

// ValidateMounts checks every mount and that no route is mounted twice.
func (v *Validator) ValidateMounts(mounts []corpus.Mount) error {
	seen := map[string]bool{}
	for _, mount := range mounts {
		if err := v.Validate(mount); err != nil {
			return fmt.Errorf("invalid mount %q: %w", mount.Route, err)
		}
		if seen[mount.Route] {
			return fmt.Errorf("route %q is mounted more than once", mount.Route)
		}
		seen[mount.Route] = true
	}

	return nil
}

func (v *Validator) getTagValidationDetails() map[string]tagValidationDetails {
	v.tagValidationDetailsOnce.Do(func() {
		v.tagValidationDetailsMap = map[string]tagValidationDetails{
			"valid_route":        {validatorFunc: v.isValidRoute, err: errors.New("invalid route")},
			"valid_scope":        {validatorFunc: v.isValidScope, err: errors.New("invalid scope, expected one of library, group, global")},
			"valid_message_type": {validatorFunc: v.isValidMessageType, err: errors.New("invalid message type")},
			"valid_query":        {validatorFunc: v.isValidQuery, err: errors.New("invalid query")},
		}
	})
	return v.tagValidationDetailsMap
}

func (v *Validator) registerCustomValidatorsForTags() error {

	tagValidationDetailsMap := v.getTagValidationDetails()

	for tag, tagValidationDetails := range tagValidationDetailsMap {
		if err := v.validator.RegisterValidation(tag, tagValidationDetails.validatorFunc); err != nil {
			v.logger.Error("failed to register customer validator function", "err", err.Error())
			return err
		}
	}
	return nil
}

func useJSONFieldNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// reservedRoutes are served by the application itself and cannot host a search page.
var reservedRoutes = map[string]bool{
	"/health":              true,
	"/metrics":             true,
	"/cache":               true,
	"/lookup":              true,
	"/offline-search":      true,
	"/offline-search/live": true,
}

func (v *Validator) isValidRoute(fl validator.FieldLevel) bool {
	route := fl.Field().String()
	if !strings.HasPrefix(route, "/") || route == "/" {
		v.logger.Warn("route must start with / and name a page", "route", route)
		return false
	}

	if strings.ContainsAny(route, "\x00?#:*") || strings.Contains(route, "//") {
		v.logger.Warn("route has characters that cannot be mounted", "route", route)
		return false
	}

	for _, segment := range strings.Split(route, "/") {
		if segment == ".." || segment == "." {
			v.logger.Warn("route has relative segments", "route", route)
			return false
		}
	}

	if reservedRoutes[route] {
		v.logger.Warn("route is reserved", "route", route)
		return false
	}

	return true
}

func (v *Validator) isValidScope(fl validator.FieldLevel) bool {
	return corpus.Scope(fl.Field().String()).Valid()
}

func (v *Validator) isValidMessageType(fl validator.FieldLevel) bool {
	return fl.Field().String() == MessageTypeConsiderCaching
}

func (v *Validator) isValidQuery(fl validator.FieldLevel) bool {
	query := fl.Field().String()
	if strings.Contains(query, "\x00") {
		v.logger.Warn("query has null byte", "query", query)
		return false
	}

	return true
}

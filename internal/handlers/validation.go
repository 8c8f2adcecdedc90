package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/panelkit/panelkit/pkg/errors"
	"github.com/panelkit/panelkit/pkg/response"
	appValidator "github.com/panelkit/panelkit/pkg/validator"
)

// bindAndValidate binds the JSON payload into dest and runs struct validation rules.
// When validation fails, an error response is automatically written and false is returned.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return false
	}

	if err := appValidator.ValidateStruct(dest); err != nil {
		response.ValidationError(c, "The given data was invalid.", validationFields(err))
		return false
	}

	return true
}

// validationFields converts validator failures into a field -> messages map.
func validationFields(err error) map[string][]string {
	fields := map[string][]string{}

	ve, ok := err.(appValidator.ValidationErrors)
	if !ok {
		fields["payload"] = []string{"invalid request payload"}
		return fields
	}

	for _, failure := range ve {
		field := prettifyFieldName(failure.Field)
		var message string
		switch failure.Tag {
		case "required":
			message = fmt.Sprintf("The %s field is required.", field)
		case "email":
			message = fmt.Sprintf("The %s must be a valid email address.", field)
		case "min":
			message = fmt.Sprintf("The %s must be at least %s characters.", field, failure.Param)
		case "max":
			message = fmt.Sprintf("The %s may not be greater than %s characters.", field, failure.Param)
		case "eqfield":
			message = fmt.Sprintf("The %s confirmation does not match.", field)
		case "oneof":
			message = fmt.Sprintf("The selected %s is invalid.", field)
		default:
			if failure.Param != "" {
				message = fmt.Sprintf("The %s failed validation: %s=%s.", field, failure.Tag, failure.Param)
			} else {
				message = fmt.Sprintf("The %s failed validation: %s.", field, failure.Tag)
			}
		}
		fields[failure.Field] = append(fields[failure.Field], message)
	}

	return fields
}

func prettifyFieldName(name string) string {
	if name == "" {
		return "field"
	}
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ToLower(name)
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// parseIDParam extracts a positive integer path parameter. On failure a
// 404 is written and false returned: a malformed id can never match a row.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		response.Error(c, appErrors.ErrNotFound)
		return 0, false
	}
	return uint(parsed), true
}

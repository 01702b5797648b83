package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"urbanfix-be/apperr"
	"urbanfix-be/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Responder converts errors into the {"message": ...} response shape.
type Responder struct {
	production bool
	log        zerolog.Logger
}

func NewResponder(production bool, log zerolog.Logger) *Responder {
	return &Responder{production: production, log: log}
}

func (r *Responder) Error(c *gin.Context, err error) {
	if appErr, ok := apperr.As(err); ok {
		status := appErr.HTTPStatus()
		if status >= http.StatusInternalServerError {
			r.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
			if r.production {
				c.JSON(status, gin.H{"message": "Server error"})
				return
			}
		}
		c.JSON(status, gin.H{"message": appErr.Message()})
		return
	}

	r.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	message := "Server error"
	if !r.production {
		message = err.Error()
	}
	c.JSON(http.StatusInternalServerError, gin.H{"message": message})
}

// bindError turns a binding failure into a validation error naming the
// first offending field.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return apperr.Validation(fmt.Sprintf("%s is required", fe.Field()))
		case "email":
			return apperr.Validation(fmt.Sprintf("%s must be a valid email", fe.Field()))
		case "min", "max":
			return apperr.Validation(fmt.Sprintf("%s must be %s %s", fe.Field(), bound(fe.Tag()), fe.Param()))
		default:
			return apperr.Validation(fmt.Sprintf("Invalid %s", fe.Field()))
		}
	}
	return apperr.Validation("Invalid request body")
}

func bound(tag string) string {
	if tag == "min" {
		return "at least"
	}
	return "at most"
}

func parseID(c *gin.Context, param string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("Invalid id")
	}
	return id, nil
}

func optionalID(raw, name string) (*primitive.ObjectID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, apperr.Validation(fmt.Sprintf("Invalid %s", name))
	}
	return &id, nil
}

// RegisterValidators adds the enum tags used in request bindings and
// reports fields by their JSON names.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})

	enums := map[string]func(string) bool{
		"issuetype":  func(s string) bool { return models.IssueType(s).Valid() },
		"priority":   func(s string) bool { return models.Priority(s).Valid() },
		"workstatus": func(s string) bool { return models.WorkStatus(s).Valid() },
		"role":       func(s string) bool { return models.Role(s).Valid() },
	}
	for tag, valid := range enums {
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return valid(fl.Field().String())
		}); err != nil {
			return err
		}
	}
	return nil
}

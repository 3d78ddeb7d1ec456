package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// validationErrorMessage returns a user-friendly message for binding
// failures on request bodies.
func validationErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, ve := range verrs {
			switch ve.Field() {
			case "Name":
				if ve.Tag() == "required" {
					return "Name is required"
				}
			case "Settings":
				if ve.Tag() == "required" {
					return "Settings are required"
				}
			case "Value":
				if ve.Tag() == "required" {
					return "Value is required"
				}
			}
		}
	}
	return "Invalid request"
}

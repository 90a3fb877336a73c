package contact

import (
	"strings"

	"github.com/gin-gonic/gin/binding"
)

// Form is a contact submission as posted by the page.
type Form struct {
	Name    string `form:"name" json:"name" binding:"required,max=100"`
	Email   string `form:"email" json:"email" binding:"required,email,max=254"`
	Message string `form:"message" json:"message" binding:"required,max=5000"`
}

// Normalize trims surrounding whitespace from every field.
func (f Form) Normalize() Form {
	return Form{
		Name:    strings.TrimSpace(f.Name),
		Email:   strings.TrimSpace(f.Email),
		Message: strings.TrimSpace(f.Message),
	}
}

// Validate runs the binding rules against the normalized form.
func (f Form) Validate() error {
	return binding.Validator.ValidateStruct(f.Normalize())
}

package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmehra2102/storefront/pkg/apperr"
)

// CustomRequest is a shopper's description of a piece they want made.
type CustomRequest struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	PhoneNumber     string    `json:"phone_number"`
	IdeaDescription string    `json:"idea_description"`
	ReferenceImage  string    `json:"reference_image,omitempty"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

func (c CustomRequest) Validate() error {
	fields := map[string]string{}
	switch n := utf8.RuneCountInString(strings.TrimSpace(c.Name)); {
	case n == 0:
		fields["name"] = "This field is required."
	case n > 100:
		fields["name"] = "Ensure this field has at most 100 characters."
	}
	switch n := utf8.RuneCountInString(strings.TrimSpace(c.PhoneNumber)); {
	case n == 0:
		fields["phone_number"] = "This field is required."
	case n > 15:
		fields["phone_number"] = "Ensure this field has at most 15 characters."
	}
	if strings.TrimSpace(c.IdeaDescription) == "" {
		fields["idea_description"] = "This field is required."
	}
	if len(fields) > 0 {
		return apperr.Validation(fields)
	}
	return nil
}

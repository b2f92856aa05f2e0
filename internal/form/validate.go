package form

import (
	"fmt"
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validation is the outcome of a per-step check. Message is empty when the
// step passes and is phrased for direct display to the customer.
type Validation struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

func valid() Validation {
	return Validation{Valid: true}
}

func invalid(message string) Validation {
	return Validation{Valid: false, Message: message}
}

// ValidateEmail applies the permissive intake rule: one @ with non-empty
// local part and a dot in the domain. It is deliberately looser than full
// RFC address parsing.
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidateStep checks whether the current record satisfies the named step's
// gate. Steps without required input always pass, as does an unknown step
// name.
func (s *Store) ValidateStep(step string) Validation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch step {
	case "contact":
		return s.validateContact()
	case "project-type":
		if s.record.ProjectType == "" {
			return invalid("Please select a project type")
		}
		return valid()
	case "products":
		if len(s.record.SelectedProducts) == 0 {
			return invalid("Please select at least one product")
		}
		return valid()
	case "details":
		return s.validateDetails()
	default:
		return valid()
	}
}

func (s *Store) validateContact() Validation {
	c := s.record.Contact
	if strings.TrimSpace(c.Email) == "" || strings.TrimSpace(c.ContactName) == "" {
		return invalid("Please fill in all required fields")
	}
	if !ValidateEmail(c.Email) {
		return invalid("Please enter a valid email address")
	}
	return valid()
}

// validateDetails requires sizes, colors and a quantity for every selected
// product. Failures for multiple products are reported together, one line
// per problem.
func (s *Store) validateDetails() Validation {
	var problems []string
	for _, p := range s.record.SelectedProducts {
		d, ok := s.record.ProductDetails[p.ID]
		if !ok {
			problems = append(problems, fmt.Sprintf("Missing details for %s", p.Name))
			continue
		}
		if len(d.Sizes) == 0 {
			problems = append(problems, fmt.Sprintf("Please select sizes for %s", p.Name))
		}
		if len(d.Colors) == 0 {
			problems = append(problems, fmt.Sprintf("Please select colors for %s", p.Name))
		}
		if d.Quantity < 1 {
			problems = append(problems, fmt.Sprintf("Please specify quantity for %s", p.Name))
		}
	}
	if len(problems) > 0 {
		return invalid(strings.Join(problems, "\n"))
	}
	return valid()
}

// Package steps binds the order form's page sequence to the draft record:
// extracting a page's submitted fields into a form.Patch and populating a
// page's fields back out of the stored record.
package steps

// StepID identifies one page of the order form.
type StepID string

const (
	StepWelcome       StepID = "welcome"
	StepProjectType   StepID = "project-type"
	StepProducts      StepID = "products"
	StepDetails       StepID = "details"
	StepCustomization StepID = "customization"
	StepCustomItems   StepID = "custom-items"
	StepLogoUpload    StepID = "logo-upload"
	StepContact       StepID = "contact"
	StepReview        StepID = "review"
	StepSuccess       StepID = "success"
)

// Sequence is the fixed page order. Welcome collects the same contact
// fields the contact step confirms later.
var Sequence = []StepID{
	StepWelcome,
	StepProjectType,
	StepProducts,
	StepDetails,
	StepCustomization,
	StepCustomItems,
	StepLogoUpload,
	StepContact,
	StepReview,
	StepSuccess,
}

// Valid reports whether id names a known step.
func Valid(id StepID) bool {
	return Index(id) >= 0
}

// Index returns the step's position in the sequence, or -1 when unknown.
func Index(id StepID) int {
	for i, s := range Sequence {
		if s == id {
			return i
		}
	}
	return -1
}

// Next returns the step after id, or id itself when already last or
// unknown.
func Next(id StepID) StepID {
	i := Index(id)
	if i < 0 || i >= len(Sequence)-1 {
		return id
	}
	return Sequence[i+1]
}

// Prev returns the step before id, or id itself when already first or
// unknown.
func Prev(id StepID) StepID {
	i := Index(id)
	if i <= 0 {
		return id
	}
	return Sequence[i-1]
}

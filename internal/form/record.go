// Package form owns the canonical in-progress submission record. All reads
// and writes of draft state go through the Store; nothing else mutates a
// Record directly.
package form

import (
	"time"
)

// Status tracks the submission lifecycle of a draft.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
)

// FileStatus describes the attachment lifecycle.
type FileStatus string

const (
	FileProcessing FileStatus = "processing"
	FileProcessed  FileStatus = "processed"
	FileUploading  FileStatus = "uploading"
	FileUploaded   FileStatus = "uploaded"
	FileFailed     FileStatus = "failed"
)

// Contact holds the customer contact fields. Email and ContactName gate
// completion; the rest are optional.
type Contact struct {
	Email          string `json:"email"`
	ContactName    string `json:"contactName"`
	CompanyName    string `json:"companyName"`
	Phone          string `json:"phone"`
	ReferralSource string `json:"referralSource"`
}

// SelectedProduct is a snapshot of a catalog entry at selection time, not a
// live reference. Selection order is preserved.
type SelectedProduct struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	CategoryName string `json:"categoryName"`
	Price        string `json:"price"`
	Icon         string `json:"icon"`
}

// ProductDetail records the per-product choices made on the details step.
type ProductDetail struct {
	Quantity      int      `json:"quantity"`
	LogoPlacement string   `json:"logoPlacement"`
	Sizes         []string `json:"sizes"`
	Colors        []string `json:"colors"`
	Notes         string   `json:"notes"`
}

// CustomItem is a free-form request outside the product catalog.
// Description is required; the id is generated locally at extraction time.
type CustomItem struct {
	ID              string `json:"id"`
	Description     string `json:"description"`
	CreativeFreedom bool   `json:"creativeFreedom"`
	Requirements    string `json:"requirements"`
}

// FileMeta is the serializable slice of an attachment. Binary content never
// appears here; the attachment manager keeps it in memory only.
type FileMeta struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Size         int64      `json:"size"`
	ContentType  string     `json:"type"`
	Status       FileStatus `json:"status"`
	HasPreview   bool       `json:"hasPreview,omitempty"`
	MondayFileID string     `json:"mondayFileId,omitempty"`
	URL          string     `json:"url,omitempty"`
	UploadedAt   time.Time  `json:"uploadedAt"`
}

// Record is the complete in-progress or completed order draft, one per
// browser session. The JSON shape is the durable storage format.
type Record struct {
	Contact Contact `json:"contactInfo"`

	ProjectType         string `json:"projectType"`
	ProjectDescription  string `json:"projectDescription"`
	Timeline            string `json:"timeline"`
	ApproximateQuantity string `json:"approximateQuantity"`

	SelectedProducts []SelectedProduct        `json:"selectedProducts"`
	ProductDetails   map[string]ProductDetail `json:"productDetails"`

	// Customization maps preference keys to a string (radio groups) or a
	// []string (checkbox groups); free-text fields are string-valued keys.
	Customization map[string]interface{} `json:"customization"`

	CustomItems   []CustomItem `json:"customItems"`
	UploadedFiles []FileMeta   `json:"uploadedFiles"`

	Status       Status    `json:"status"`
	SubmissionID string    `json:"submissionId,omitempty"`
	MondayItemID string    `json:"mondayItemId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Customization keys used by the form. Radio groups store a string,
// checkbox groups a []string, the rest free text.
const (
	CustLogoStyle           = "logo-style"
	CustLogoSize            = "logo-size"
	CustBudgetRange         = "budget-range"
	CustAdditionalText      = "additional-text"
	CustTextDetails         = "text-details"
	CustSpecialRequirements = "special-requirements"
	CustSpecialInstructions = "special-instructions"
	CustDeliveryMethod      = "delivery-method"
	CustDeliveryTimeline    = "delivery-timeline"
	CustSpecificDate        = "specific-date"
)

// CustomizationKeys lists every preference key the customization step can
// submit, in display order.
var CustomizationKeys = []string{
	CustLogoStyle,
	CustLogoSize,
	CustBudgetRange,
	CustAdditionalText,
	CustTextDetails,
	CustSpecialRequirements,
	CustSpecialInstructions,
	CustDeliveryMethod,
	CustDeliveryTimeline,
	CustSpecificDate,
}

// NewRecord returns the default draft shape.
func NewRecord() Record {
	now := time.Now().UTC()
	return Record{
		SelectedProducts: []SelectedProduct{},
		ProductDetails:   map[string]ProductDetail{},
		Customization:    map[string]interface{}{},
		CustomItems:      []CustomItem{},
		UploadedFiles:    []FileMeta{},
		Status:           StatusDraft,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Clone returns a copy safe to hand to readers; slices and maps are copied
// one level deep, which covers every mutation path the store exposes.
func (r Record) Clone() Record {
	out := r
	out.SelectedProducts = append([]SelectedProduct(nil), r.SelectedProducts...)
	out.CustomItems = append([]CustomItem(nil), r.CustomItems...)
	out.UploadedFiles = append([]FileMeta(nil), r.UploadedFiles...)
	out.ProductDetails = make(map[string]ProductDetail, len(r.ProductDetails))
	for k, v := range r.ProductDetails {
		out.ProductDetails[k] = v
	}
	out.Customization = make(map[string]interface{}, len(r.Customization))
	for k, v := range r.Customization {
		out.Customization[k] = v
	}
	return out
}

// CustomizationString returns the string value for key, tolerating absent
// keys and non-string values.
func (r Record) CustomizationString(key string) string {
	if v, ok := r.Customization[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// CustomizationStrings returns the list value for key. JSON round-trips
// turn []string into []interface{}, so both are handled.
func (r Record) CustomizationStrings(key string) []string {
	v, ok := r.Customization[key]
	if !ok {
		return nil
	}
	switch vv := v.(type) {
	case []string:
		return vv
	case []interface{}:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if vv == "" {
			return nil
		}
		return []string{vv}
	}
	return nil
}

// HasCustomization reports whether any preference carries a non-empty value.
// Empty defaults do not count toward completion.
func (r Record) HasCustomization() bool {
	for _, v := range r.Customization {
		switch vv := v.(type) {
		case string:
			if vv != "" {
				return true
			}
		case []string:
			if len(vv) > 0 {
				return true
			}
		case []interface{}:
			if len(vv) > 0 {
				return true
			}
		}
	}
	return false
}

// IsSelected reports whether the product id is currently selected.
func (r Record) IsSelected(productID string) bool {
	for _, p := range r.SelectedProducts {
		if p.ID == productID {
			return true
		}
	}
	return false
}

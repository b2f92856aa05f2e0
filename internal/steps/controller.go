package steps

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"goodboy-intake/internal/catalog"
	"goodboy-intake/internal/common/logger"
	"goodboy-intake/internal/form"
)

// Controller translates between step field values and the draft record.
// It never persists anything itself; callers apply the returned patch
// through the store.
type Controller struct {
	catalog *catalog.Catalog
	logger  logger.Logger
	now     func() time.Time
}

func NewController(cat *catalog.Catalog, log logger.Logger) *Controller {
	return &Controller{
		catalog: cat,
		logger:  log,
		now:     time.Now,
	}
}

// Extract builds a patch from the fields of one step. Absent or empty
// fields leave the stored value untouched; submitted non-empty values win.
// rec supplies the current state where extraction depends on it, like the
// selected products the details step is scoped to.
func (c *Controller) Extract(step StepID, view View, rec form.Record) form.Patch {
	switch step {
	case StepWelcome, StepContact:
		return c.extractContact(view)
	case StepProjectType:
		return c.extractProjectType(view)
	case StepProducts:
		return c.extractProducts(view)
	case StepDetails:
		return c.extractDetails(view, rec)
	case StepCustomization:
		return c.extractCustomization(view)
	case StepCustomItems:
		return c.extractCustomItems(view)
	default:
		// logo-upload is fed by the attachment manager, review and
		// success collect nothing.
		return form.Patch{}
	}
}

func (c *Controller) extractContact(view View) form.Patch {
	email := view.Value("email")
	if email == "" {
		email = view.Value("contact-email")
	}
	contact := form.Contact{
		Email:          email,
		ContactName:    view.Value("contact-name"),
		CompanyName:    view.Value("company-name"),
		Phone:          view.Value("phone"),
		ReferralSource: view.Value("referral-source"),
	}
	if contact == (form.Contact{}) {
		return form.Patch{}
	}
	return form.Patch{Contact: &contact}
}

func (c *Controller) extractProjectType(view View) form.Patch {
	var p form.Patch
	if v := view.Value("project-type"); v != "" {
		p.ProjectType = &v
	}
	if v := view.Value("project-description"); v != "" {
		p.ProjectDescription = &v
	}
	if v := view.Value("timeline"); v != "" {
		p.Timeline = &v
	}
	if v := view.Value("approximate-quantity"); v != "" {
		p.ApproximateQuantity = &v
	}
	return p
}

// extractProducts snapshots the catalog entry for each submitted product id
// so the draft stays renderable even if the catalog changes later. Unknown
// ids are dropped with a log line. No submitted ids means no change.
func (c *Controller) extractProducts(view View) form.Patch {
	ids := view.Values("product")
	if len(ids) == 0 {
		return form.Patch{}
	}
	selected := make([]form.SelectedProduct, 0, len(ids))
	for _, id := range ids {
		p := c.catalog.Product(id)
		if p == nil {
			c.logger.Warn("ignoring unknown product id", map[string]interface{}{"productId": id})
			continue
		}
		selected = append(selected, form.SelectedProduct{
			ID:           p.ID,
			Name:         p.Name,
			Category:     p.Category,
			CategoryName: c.catalog.CategoryName(p.Category),
			Price:        p.Price,
			Icon:         p.Icon,
		})
	}
	return form.Patch{SelectedProducts: selected}
}

// extractDetails rebuilds the detail map for the currently selected
// products. A product whose fields were not submitted keeps its stored
// entry.
func (c *Controller) extractDetails(view View, rec form.Record) form.Patch {
	details := make(map[string]form.ProductDetail, len(rec.SelectedProducts))
	for _, p := range rec.SelectedProducts {
		if d, ok := c.productDetail(view, p.ID); ok {
			details[p.ID] = d
		} else if prev, ok := rec.ProductDetails[p.ID]; ok {
			details[p.ID] = prev
		}
	}
	if len(details) == 0 {
		return form.Patch{}
	}
	return form.Patch{ProductDetails: details}
}

func (c *Controller) productDetail(view View, id string) (form.ProductDetail, bool) {
	quantity := view.Value("quantity-" + id)
	placement := view.Value("logo-placement-" + id)
	sizes := view.Values("sizes-" + id)
	colors := view.Values("colors-" + id)
	notes := view.Value("notes-" + id)

	if quantity == "" && placement == "" && len(sizes) == 0 && len(colors) == 0 && notes == "" {
		return form.ProductDetail{}, false
	}

	qty := 1
	if n, err := strconv.Atoi(quantity); err == nil && n > 0 {
		qty = n
	}
	return form.ProductDetail{
		Quantity:      qty,
		LogoPlacement: placement,
		Sizes:         nonEmpty(sizes),
		Colors:        nonEmpty(colors),
		Notes:         notes,
	}, true
}

// extractCustomization collects the known preference keys. A key with a
// single value stores a string, multiple values a list, matching the
// stored shape radios and checkbox groups produce.
func (c *Controller) extractCustomization(view View) form.Patch {
	prefs := map[string]interface{}{}
	for _, key := range form.CustomizationKeys {
		values := nonEmpty(view.Values(key))
		switch len(values) {
		case 0:
		case 1:
			prefs[key] = values[0]
		default:
			prefs[key] = values
		}
	}
	if len(prefs) == 0 {
		return form.Patch{}
	}
	return form.Patch{Customization: prefs}
}

// extractCustomItems parses the parallel item-description /
// item-creative-freedom / item-requirements value lists. Rows with an empty
// description are skipped; submitted rows replace the stored list.
func (c *Controller) extractCustomItems(view View) form.Patch {
	descriptions := view.Values("item-description")
	if len(descriptions) == 0 {
		return form.Patch{}
	}
	freedoms := view.Values("item-creative-freedom")
	requirements := view.Values("item-requirements")

	stamp := c.now().UnixMilli()
	items := make([]form.CustomItem, 0, len(descriptions))
	for i, desc := range descriptions {
		if strings.TrimSpace(desc) == "" {
			continue
		}
		items = append(items, form.CustomItem{
			ID:              fmt.Sprintf("custom-%d-%d", stamp, i),
			Description:     desc,
			CreativeFreedom: boolAt(freedoms, i),
			Requirements:    at(requirements, i),
		})
	}
	return form.Patch{CustomItems: items}
}

// Populate writes the stored values of one step back into the renderer.
// The review step renders a derived summary instead of field values.
func (c *Controller) Populate(step StepID, rec form.Record, r Renderer) {
	switch step {
	case StepWelcome, StepContact:
		r.SetValue("email", rec.Contact.Email)
		r.SetValue("contact-name", rec.Contact.ContactName)
		r.SetValue("company-name", rec.Contact.CompanyName)
		r.SetValue("phone", rec.Contact.Phone)
		r.SetValue("referral-source", rec.Contact.ReferralSource)
	case StepProjectType:
		r.SetValue("project-type", rec.ProjectType)
		r.SetValue("project-description", rec.ProjectDescription)
		r.SetValue("timeline", rec.Timeline)
		r.SetValue("approximate-quantity", rec.ApproximateQuantity)
	case StepProducts:
		ids := make([]string, len(rec.SelectedProducts))
		for i, p := range rec.SelectedProducts {
			ids[i] = p.ID
		}
		r.SetValues("product", ids)
	case StepDetails:
		for _, p := range rec.SelectedProducts {
			d, ok := rec.ProductDetails[p.ID]
			if !ok {
				continue
			}
			r.SetValue("quantity-"+p.ID, strconv.Itoa(d.Quantity))
			r.SetValue("logo-placement-"+p.ID, d.LogoPlacement)
			r.SetValues("sizes-"+p.ID, d.Sizes)
			r.SetValues("colors-"+p.ID, d.Colors)
			r.SetValue("notes-"+p.ID, d.Notes)
		}
	case StepCustomization:
		for _, key := range form.CustomizationKeys {
			if values := rec.CustomizationStrings(key); len(values) > 0 {
				r.SetValues(key, values)
			}
		}
	case StepCustomItems:
		descriptions := make([]string, len(rec.CustomItems))
		freedoms := make([]string, len(rec.CustomItems))
		requirements := make([]string, len(rec.CustomItems))
		for i, item := range rec.CustomItems {
			descriptions[i] = item.Description
			freedoms[i] = strconv.FormatBool(item.CreativeFreedom)
			requirements[i] = item.Requirements
		}
		r.SetValues("item-description", descriptions)
		r.SetValues("item-creative-freedom", freedoms)
		r.SetValues("item-requirements", requirements)
	case StepLogoUpload:
		names := make([]string, len(rec.UploadedFiles))
		for i, f := range rec.UploadedFiles {
			names[i] = f.Name
		}
		r.SetValues("file-name", names)
	case StepReview:
		r.SetValue("summary", c.Summary(rec))
	}
}

// Summary renders the read-only review text: one section per populated
// part of the draft.
func (c *Controller) Summary(rec form.Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Contact: %s", rec.Contact.ContactName)
	if rec.Contact.CompanyName != "" {
		fmt.Fprintf(&b, " (%s)", rec.Contact.CompanyName)
	}
	fmt.Fprintf(&b, "\nEmail: %s\n", rec.Contact.Email)

	if rec.ProjectType != "" {
		fmt.Fprintf(&b, "Project Type: %s\n", c.catalog.ProjectTypeTitle(rec.ProjectType))
	}
	if rec.Timeline != "" {
		fmt.Fprintf(&b, "Timeline: %s\n", rec.Timeline)
	}

	for _, p := range rec.SelectedProducts {
		fmt.Fprintf(&b, "\n%s (%s)", p.Name, p.CategoryName)
		if d, ok := rec.ProductDetails[p.ID]; ok {
			fmt.Fprintf(&b, "\n  Quantity: %d", d.Quantity)
			if len(d.Sizes) > 0 {
				fmt.Fprintf(&b, "\n  Sizes: %s", strings.Join(d.Sizes, ", "))
			}
			if len(d.Colors) > 0 {
				fmt.Fprintf(&b, "\n  Colors: %s", strings.Join(d.Colors, ", "))
			}
			if d.LogoPlacement != "" {
				fmt.Fprintf(&b, "\n  Logo Placement: %s", d.LogoPlacement)
			}
		}
		b.WriteString("\n")
	}

	for _, item := range rec.CustomItems {
		fmt.Fprintf(&b, "\nCustom Item: %s", item.Description)
		if item.CreativeFreedom {
			b.WriteString(" (creative freedom)")
		}
		b.WriteString("\n")
	}

	if len(rec.UploadedFiles) > 0 {
		fmt.Fprintf(&b, "\nFiles: %d attached\n", len(rec.UploadedFiles))
	}

	return b.String()
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

func boolAt(values []string, i int) bool {
	switch strings.ToLower(at(values, i)) {
	case "true", "1", "on", "yes":
		return true
	}
	return false
}

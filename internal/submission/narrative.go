package submission

import (
	"fmt"
	"strings"
	"time"

	"goodboy-intake/internal/catalog"
	"goodboy-intake/internal/form"
)

// Narrative renders the whole draft as one structured text blob, posted as
// a single update on the created item. Sections with no content are
// skipped.
func Narrative(rec form.Record, cat *catalog.Catalog, submittedAt time.Time) string {
	var b strings.Builder

	b.WriteString("**New Custom Apparel Request**\n\n")

	c := rec.Contact
	if c != (form.Contact{}) {
		b.WriteString("**Contact Details:**\n")
		if c.ContactName != "" {
			fmt.Fprintf(&b, "- Name: %s\n", c.ContactName)
		}
		if c.Email != "" {
			fmt.Fprintf(&b, "- Email: %s\n", c.Email)
		}
		if c.CompanyName != "" {
			fmt.Fprintf(&b, "- Company: %s\n", c.CompanyName)
		}
		if c.Phone != "" {
			fmt.Fprintf(&b, "- Phone: %s\n", c.Phone)
		}
		b.WriteString("\n")
	}

	b.WriteString("**Project Information:**\n")
	fmt.Fprintf(&b, "- Type: %s\n", cat.ProjectTypeTitle(rec.ProjectType))
	if rec.ProjectDescription != "" {
		fmt.Fprintf(&b, "- Description: %s\n", rec.ProjectDescription)
	}
	if rec.Timeline != "" {
		fmt.Fprintf(&b, "- Timeline: %s\n", rec.Timeline)
	}
	if rec.ApproximateQuantity != "" {
		fmt.Fprintf(&b, "- Quantity: %s\n", rec.ApproximateQuantity)
	}
	b.WriteString("\n")

	if len(rec.SelectedProducts) > 0 {
		fmt.Fprintf(&b, "**Selected Products (%d):**\n", len(rec.SelectedProducts))
		for _, p := range rec.SelectedProducts {
			fmt.Fprintf(&b, "- %s (%s)\n", p.Name, p.Price)
			if d, ok := rec.ProductDetails[p.ID]; ok {
				if d.Quantity > 0 {
					fmt.Fprintf(&b, "  - Quantity: %d\n", d.Quantity)
				}
				if len(d.Sizes) > 0 {
					fmt.Fprintf(&b, "  - Sizes: %s\n", strings.Join(d.Sizes, ", "))
				}
				if len(d.Colors) > 0 {
					fmt.Fprintf(&b, "  - Colors: %s\n", strings.Join(d.Colors, ", "))
				}
				if d.LogoPlacement != "" {
					fmt.Fprintf(&b, "  - Logo Placement: %s\n", d.LogoPlacement)
				}
				if d.Notes != "" {
					fmt.Fprintf(&b, "  - Notes: %s\n", d.Notes)
				}
			}
		}
		b.WriteString("\n")
	}

	if len(rec.CustomItems) > 0 {
		fmt.Fprintf(&b, "**Custom Items (%d):**\n", len(rec.CustomItems))
		for i, item := range rec.CustomItems {
			fmt.Fprintf(&b, "%d. %s\n", i+1, item.Description)
			if item.CreativeFreedom {
				b.WriteString("   - Creative freedom: Yes\n")
			}
			if item.Requirements != "" {
				fmt.Fprintf(&b, "   - Requirements: %s\n", item.Requirements)
			}
		}
		b.WriteString("\n")
	}

	if rec.HasCustomization() {
		b.WriteString("**Customization Preferences:**\n")
		prefLine(&b, rec, form.CustLogoStyle, "Logo Style")
		prefLine(&b, rec, form.CustLogoSize, "Logo Size")
		prefLine(&b, rec, form.CustBudgetRange, "Budget Range")
		prefLine(&b, rec, form.CustDeliveryMethod, "Delivery Method")
		prefLine(&b, rec, form.CustDeliveryTimeline, "Timeline")
		prefLine(&b, rec, form.CustSpecialInstructions, "Special Instructions")
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "**Submitted:** %s\n", submittedAt.Format("2006-01-02 15:04:05"))
	b.WriteString("**Generated by:** Good Boy Custom Order Form")

	return b.String()
}

func prefLine(b *strings.Builder, rec form.Record, key, label string) {
	values := rec.CustomizationStrings(key)
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, strings.Join(values, ", "))
}

package form

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"goodboy-intake/internal/common/logger"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"USER@SUB.EXAMPLE.ORG", true},
		{"a@b.co", true},
		{"user@example", false},
		{"user.example.com", false},
		{"user @example.com", false},
		{"@example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateEmail(tt.email))
		})
	}
}

func TestValidateContactStep(t *testing.T) {
	tests := []struct {
		name    string
		contact Contact
		valid   bool
		message string
	}{
		{
			name:    "complete contact",
			contact: Contact{Email: "a@b.co", ContactName: "Ada"},
			valid:   true,
		},
		{
			name:    "missing name",
			contact: Contact{Email: "a@b.co"},
			valid:   false,
			message: "Please fill in all required fields",
		},
		{
			name:    "missing email",
			contact: Contact{ContactName: "Ada"},
			valid:   false,
			message: "Please fill in all required fields",
		},
		{
			name:    "whitespace only name",
			contact: Contact{Email: "a@b.co", ContactName: "   "},
			valid:   false,
			message: "Please fill in all required fields",
		},
		{
			name:    "malformed email",
			contact: Contact{Email: "not-an-email", ContactName: "Ada"},
			valid:   false,
			message: "Please enter a valid email address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			s.MergeStep(context.Background(), Patch{Contact: &tt.contact})
			v := s.ValidateStep("contact")
			assert.Equal(t, tt.valid, v.Valid)
			assert.Equal(t, tt.message, v.Message)
		})
	}
}

func TestValidateProjectTypeStep(t *testing.T) {
	s := newTestStore(t)
	v := s.ValidateStep("project-type")
	assert.False(t, v.Valid)
	assert.Equal(t, "Please select a project type", v.Message)

	s.MergeStep(context.Background(), Patch{ProjectType: strPtr("uniforms")})
	assert.True(t, s.ValidateStep("project-type").Valid)
}

func TestValidateProductsStep(t *testing.T) {
	s := newTestStore(t)
	v := s.ValidateStep("products")
	assert.False(t, v.Valid)
	assert.Equal(t, "Please select at least one product", v.Message)

	s.MergeStep(context.Background(), Patch{SelectedProducts: []SelectedProduct{{ID: "cap"}}})
	assert.True(t, s.ValidateStep("products").Valid)
}

func TestValidateDetailsStep(t *testing.T) {
	ctx := context.Background()

	t.Run("missing detail entry", func(t *testing.T) {
		s := newTestStore(t)
		s.MergeStep(ctx, Patch{
			SelectedProducts: []SelectedProduct{{ID: "cap", Name: "Snapback Cap"}},
		})
		v := s.ValidateStep("details")
		assert.False(t, v.Valid)
		assert.Equal(t, "Missing details for Snapback Cap", v.Message)
	})

	t.Run("all violations reported together", func(t *testing.T) {
		s := newTestStore(t)
		s.MergeStep(ctx, Patch{
			SelectedProducts: []SelectedProduct{{ID: "cap", Name: "Snapback Cap"}},
			ProductDetails:   map[string]ProductDetail{"cap": {}},
		})
		v := s.ValidateStep("details")
		assert.False(t, v.Valid)
		assert.Equal(t,
			"Please select sizes for Snapback Cap\n"+
				"Please select colors for Snapback Cap\n"+
				"Please specify quantity for Snapback Cap",
			v.Message)
	})

	t.Run("violations accumulate across products", func(t *testing.T) {
		s := newTestStore(t)
		s.MergeStep(ctx, Patch{
			SelectedProducts: []SelectedProduct{
				{ID: "classic-polo", Name: "Classic Polo"},
				{ID: "cap", Name: "Snapback Cap"},
			},
			ProductDetails: map[string]ProductDetail{
				"classic-polo": {Quantity: 25, Sizes: []string{"M"}, Colors: []string{"Navy"}},
				"cap":          {Quantity: 10, Sizes: []string{"One Size"}},
			},
		})
		v := s.ValidateStep("details")
		assert.False(t, v.Valid)
		assert.Equal(t, "Please select colors for Snapback Cap", v.Message)
	})

	t.Run("complete details pass", func(t *testing.T) {
		s := newTestStore(t)
		s.MergeStep(ctx, Patch{
			SelectedProducts: []SelectedProduct{{ID: "classic-polo", Name: "Classic Polo"}},
			ProductDetails: map[string]ProductDetail{
				"classic-polo": {Quantity: 25, LogoPlacement: "left-chest", Sizes: []string{"M", "L"}, Colors: []string{"Navy"}},
			},
		})
		assert.True(t, s.ValidateStep("details").Valid)
	})
}

func TestValidateStepWithoutGatePasses(t *testing.T) {
	s := NewStore(NewMemoryStorage(), "draft:test", logger.NewNoOpLogger())
	for _, step := range []string{"welcome", "customization", "custom-items", "logo-upload", "review", "nonexistent"} {
		assert.True(t, s.ValidateStep(step).Valid, step)
	}
}

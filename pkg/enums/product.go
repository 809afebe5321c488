package enums

import "fmt"

// ProductStatus tracks a marketplace listing through its sale.
type ProductStatus string

const (
	ProductStatusAvailable ProductStatus = "available"
	ProductStatusSold      ProductStatus = "sold"
	ProductStatusReserved  ProductStatus = "reserved"
)

var validProductStatuses = []ProductStatus{
	ProductStatusAvailable,
	ProductStatusSold,
	ProductStatusReserved,
}

// String implements fmt.Stringer.
func (s ProductStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ProductStatus.
func (s ProductStatus) IsValid() bool {
	for _, candidate := range validProductStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseProductStatus converts raw input into a ProductStatus.
func ParseProductStatus(value string) (ProductStatus, error) {
	for _, candidate := range validProductStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product status %q", value)
}

// ProductCondition grades the wear of a second-hand listing.
type ProductCondition string

const (
	ProductConditionExcellent ProductCondition = "excellent"
	ProductConditionGood      ProductCondition = "good"
	ProductConditionFair      ProductCondition = "fair"
	ProductConditionPoor      ProductCondition = "poor"
)

var validProductConditions = []ProductCondition{
	ProductConditionExcellent,
	ProductConditionGood,
	ProductConditionFair,
	ProductConditionPoor,
}

// String implements fmt.Stringer.
func (c ProductCondition) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCondition.
func (c ProductCondition) IsValid() bool {
	for _, candidate := range validProductConditions {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseProductCondition converts raw input into a ProductCondition.
func ParseProductCondition(value string) (ProductCondition, error) {
	for _, candidate := range validProductConditions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product condition %q", value)
}

// ProductCategory represents the canonical listing categories.
type ProductCategory string

const (
	ProductCategoryLaptops    ProductCategory = "laptops"
	ProductCategoryPhones     ProductCategory = "smartphones"
	ProductCategoryTablets    ProductCategory = "tablets"
	ProductCategoryDesktops   ProductCategory = "desktop_computers"
	ProductCategoryMonitors   ProductCategory = "monitors"
	ProductCategoryKeyboards  ProductCategory = "keyboards"
	ProductCategoryMice       ProductCategory = "mice"
	ProductCategoryHeadphones ProductCategory = "headphones"
	ProductCategorySpeakers   ProductCategory = "speakers"
	ProductCategoryOther      ProductCategory = "other"
)

var validProductCategories = []ProductCategory{
	ProductCategoryLaptops,
	ProductCategoryPhones,
	ProductCategoryTablets,
	ProductCategoryDesktops,
	ProductCategoryMonitors,
	ProductCategoryKeyboards,
	ProductCategoryMice,
	ProductCategoryHeadphones,
	ProductCategorySpeakers,
	ProductCategoryOther,
}

// ProductCategories returns every valid category in declaration order.
func ProductCategories() []ProductCategory {
	out := make([]ProductCategory, len(validProductCategories))
	copy(out, validProductCategories)
	return out
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}

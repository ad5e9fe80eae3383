package entities

import (
	"regexp"
	"strings"
)

type Category struct {
	ID             string
	Name           string
	NormalizedName string
}

func NewCategory(id, name string) Category {
	return Category{
		ID:             id,
		Name:           name,
		NormalizedName: NormalizeCategoryName(name),
	}
}

var categoryNameCleaner = regexp.MustCompile(`[^\w]+`)

func NormalizeCategoryName(name string) string {
	str := strings.ToLower(name)
	return categoryNameCleaner.ReplaceAllString(str, "")
}

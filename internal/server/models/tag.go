package models

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/docshare/internal/common"
)

const MaxTagLength = 64

// NormalizeTag trims name and checks it can be stored as a tag. Commas
// are rejected because tag lists travel comma-separated.
func NormalizeTag(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", fmt.Errorf("%w: tag name is required", common.ErrValidation)
	case utf8.RuneCountInString(name) > MaxTagLength:
		return "", fmt.Errorf("%w: tag name exceeds %d characters", common.ErrValidation, MaxTagLength)
	case strings.Contains(name, ","):
		return "", fmt.Errorf("%w: tag name must not contain a comma", common.ErrValidation)
	}
	return name, nil
}

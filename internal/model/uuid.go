package model

import (
	"strings"

	"github.com/google/uuid"
)

// documentIDLength matches the length of host-generated document ids.
const documentIDLength = 16

// GenerateID creates a new random document id.
func GenerateID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:documentIDLength]
}

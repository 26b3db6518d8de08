// internal/domain/models/family.go
package models

import "strings"

// maxFamilyIDLen bounds identifiers accepted from clients. Generated ids are
// 36-character UUIDs.
const maxFamilyIDLen = 128

// ValidFamilyID reports whether id can name a family folder. It rejects
// anything that is not a single, plain path element.
func ValidFamilyID(id string) bool {
	if id == "" || len(id) > maxFamilyIDLen || id == "." || id == ".." {
		return false
	}
	if strings.ContainsAny(id, `/\:`) || strings.HasPrefix(id, ".") {
		return false
	}
	for _, r := range id {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}

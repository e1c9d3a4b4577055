package table

import (
	"strconv"
	"strings"
)

// Validate reports whether an (id, name) pair is eligible for processing.
// Missing values, values that trim to empty, and a numeric zero id are rejected.
func Validate(id, name Value) bool {
	if !id.Valid || !name.Valid {
		return false
	}
	if strings.TrimSpace(id.Text) == "" || strings.TrimSpace(name.Text) == "" {
		return false
	}
	return !isZero(id.Text)
}

// Eligible is Validate applied to the record's own fields
func (r Record) Eligible() bool {
	return Validate(r.ID, r.Name)
}

func isZero(s string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil && f == 0
}

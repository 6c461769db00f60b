package model

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ClassID is the integer class identifier written as the first field of
// every annotation line.
type ClassID int

// Recognized class names. Configuration files may only refer to these.
const (
	ClassNormal              = "normal"
	ClassClavicleFracture    = "clavicle_fracture"
	ClassForeignBodyBronchus = "foreign_body_bronchus"
)

// KnownClassNames lists every class name the tool understands.
var KnownClassNames = []string{
	ClassClavicleFracture,
	ClassForeignBodyBronchus,
	ClassNormal,
}

// IsKnownClassName reports whether name is one of KnownClassNames.
func IsKnownClassName(name string) bool {
	for _, known := range KnownClassNames {
		if known == name {
			return true
		}
	}
	return false
}

// Class maps a class identifier to its name.
type Class struct {
	ID   ClassID `json:"id" yaml:"id"`
	Name string  `json:"name" yaml:"name"`
}

// ClassTable is the ordered index → name table of the dataset.
// Identifiers are expected to be dense (0..n-1); config.File.Validate
// enforces that when the table comes from a configuration file.
type ClassTable []Class

// DefaultClassTable returns the class order used by the chest X-ray
// detection model: 0 clavicle fracture, 1 foreign body, 2 normal.
func DefaultClassTable() ClassTable {
	return ClassTable{
		{ID: 0, Name: ClassClavicleFracture},
		{ID: 1, Name: ClassForeignBodyBronchus},
		{ID: 2, Name: ClassNormal},
	}
}

// Len returns the number of classes.
func (t ClassTable) Len() int {
	return len(t)
}

// IDs returns the class identifiers in ascending order.
func (t ClassTable) IDs() []ClassID {
	ids := make([]ClassID, 0, len(t))
	for _, c := range t {
		ids = append(ids, c.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Names returns the class names ordered by identifier.
func (t ClassTable) Names() []string {
	names := make([]string, 0, len(t))
	for _, id := range t.IDs() {
		name, _ := t.Name(id)
		names = append(names, name)
	}
	return names
}

// Contains reports whether id is part of the table.
func (t ClassTable) Contains(id ClassID) bool {
	_, ok := t.Name(id)
	return ok
}

// Name returns the name for a class identifier.
func (t ClassTable) Name(id ClassID) (string, bool) {
	for _, c := range t {
		if c.ID == id {
			return c.Name, true
		}
	}
	return "", false
}

// MustName returns the class name or a "class_<id>" placeholder for
// identifiers outside the table.
func (t ClassTable) MustName(id ClassID) string {
	if name, ok := t.Name(id); ok {
		return name
	}
	return fmt.Sprintf("class_%d", id)
}

// Lookup returns the identifier for a class name.
func (t ClassTable) Lookup(name string) (ClassID, bool) {
	for _, c := range t {
		if c.Name == name {
			return c.ID, true
		}
	}
	return 0, false
}

// DisplayName returns a human-readable label such as "Clavicle Fracture".
func (t ClassTable) DisplayName(id ClassID) string {
	return DisplayName(t.MustName(id))
}

// DisplayName converts a snake_case class name into title case.
func DisplayName(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}

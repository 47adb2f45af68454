package adt7316

import "strings"

const compatiblePrefix = "adi,"

// models lists every chip that shares the register map and bus protocols.
var models = []string{
	"adt7316",
	"adt7317",
	"adt7318",
	"adt7516",
	"adt7517",
	"adt7519",
}

// Models returns the supported chip names.
func Models() []string {
	out := make([]string, len(models))
	copy(out, models)
	return out
}

// LookupModel resolves a chip name or a device tree compatible string ("adi,adt7516")
// into the canonical chip name.
func LookupModel(name string) (string, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, compatiblePrefix)
	for _, m := range models {
		if m == name {
			return m, true
		}
	}
	return "", false
}

// Compatible returns the device tree compatible string of a known model.
func Compatible(name string) (string, bool) {
	m, ok := LookupModel(name)
	if !ok {
		return "", false
	}
	return compatiblePrefix + m, true
}

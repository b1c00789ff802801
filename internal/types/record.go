package types

import (
	"encoding/json"
	"fmt"
)

// requiredUnits are the keys a stored value must carry to count as a project.
var requiredUnits = []Role{RoleJS, RoleCSS, RoleHTML}

// EncodeRecord serializes a project for the key/value store.
func EncodeRecord(info ProjectInfo) (string, error) {
	data, err := json.Marshal(info)
	if err != nil {
		return "", fmt.Errorf("encoding project record: %w", err)
	}
	return string(data), nil
}

// DecodeRecord parses a stored value. Values that are not JSON objects or
// that miss any of html, css or js are rejected; such entries are not
// projects and stay out of the project list.
func DecodeRecord(raw string) (ProjectInfo, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return ProjectInfo{}, fmt.Errorf("project record is not a JSON object: %w", err)
	}
	for _, role := range requiredUnits {
		if _, ok := keys[string(role)]; !ok {
			return ProjectInfo{}, fmt.Errorf("project record misses the %s unit", role)
		}
	}

	var info ProjectInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return ProjectInfo{}, fmt.Errorf("decoding project record: %w", err)
	}
	info.Normalize()
	return info, nil
}

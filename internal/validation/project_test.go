package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/mobilcoder/internal/errors"
)

func TestValidateProjectName(t *testing.T) {
	existing := map[string]bool{"Demo": true}
	exists := func(name string) bool { return existing[name] }

	tests := []struct {
		name    string
		input   string
		code    string
		message string
	}{
		{"empty", "", errors.ErrCodeNameRequired, "You must name the project"},
		{"whitespace", "   ", errors.ErrCodeNameRequired, "You must name the project"},
		{"reserved", "-mobilcoder-theme", errors.ErrCodeNameReserved, "Invalid name"},
		{"taken", "Demo", errors.ErrCodeNameTaken, "Project Demo already exists"},
		{"fine", "Fresh", "", ""},
		{"case differs", "demo", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProjectName(tt.input, exists)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))

			var pe *errors.PlaygroundError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.code, pe.Code)
			assert.Equal(t, tt.message, pe.Message)
		})
	}
}

func TestValidateProjectNameWithoutLookup(t *testing.T) {
	assert.NoError(t, ValidateProjectName("Anything", nil))
}

package validation

import (
	"fmt"
	"strings"

	"github.com/conneroisu/mobilcoder/internal/errors"
	"github.com/conneroisu/mobilcoder/internal/types"
)

// ValidateProjectName checks a name typed into the naming prompt. exists
// reports whether a stored project already uses the name. The messages are
// shown to the user as they are.
func ValidateProjectName(name string, exists func(string) bool) error {
	if strings.TrimSpace(name) == "" {
		return errors.NewValidationError(errors.ErrCodeNameRequired, "You must name the project")
	}
	if name == types.ThemeKey {
		return errors.NewValidationError(errors.ErrCodeNameReserved, "Invalid name")
	}
	if exists != nil && exists(name) {
		return errors.NewValidationError(errors.ErrCodeNameTaken,
			fmt.Sprintf("Project %s already exists", name)).WithProject(name)
	}
	return nil
}

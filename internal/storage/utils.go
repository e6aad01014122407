package storage

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StagedFileName generates a staged file name from the form field, the
// current time and a random suffix. Collisions are not a concern because the
// suffix is randomized per file.
func StagedFileName(field, extension string) string {
	if extension != "" && extension[0] != '.' {
		extension = "." + extension
	}
	return fmt.Sprintf("%s-%d-%s%s", field, time.Now().UnixNano(), uuid.New().String(), extension)
}

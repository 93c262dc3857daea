package frontmatterops

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const uidField = "uid"

// EnsureUID guarantees fields carries a uid, generating a fresh UUID
// when the key is absent. Existing values are returned untouched.
func EnsureUID(fields map[string]any) (uid string, changed bool, err error) {
	if fields == nil {
		return "", false, errors.New("fields map is nil")
	}

	if v, ok := fields[uidField]; ok {
		return strings.TrimSpace(fmt.Sprint(v)), false, nil
	}

	uid = uuid.NewString()
	fields[uidField] = uid
	return uid, true, nil
}

package spotlight

import (
	"fmt"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var unsafeNameChars = regexp.MustCompile(`[^\w.\-]+`)

// SafeFileName keeps word characters, dots and dashes and replaces every other run with "_".
func SafeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		name = ""
	}
	safe := unsafeNameChars.ReplaceAllString(name, "_")
	if strings.Trim(safe, "._") == "" {
		return "evidence"
	}
	return safe
}

// EvidenceKey places evidence under the submitting user's namespace.
func EvidenceKey(userID, spotlightID uuid.UUID, at time.Time, fileName string) string {
	return fmt.Sprintf("%s/%s/%d-%s", userID.String(), spotlightID.String(), at.UnixMilli(), SafeFileName(fileName))
}

// evidenceContentType trusts the declared image type and falls back to sniffing.
func evidenceContentType(declared string, data []byte) string {
	if strings.HasPrefix(declared, "image/") {
		return declared
	}
	return http.DetectContentType(data)
}

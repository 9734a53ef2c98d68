package auth

import (
	"strings"

	"github.com/sku-codemong/codemong-Backend-02/internal/common"
)

// BearerToken returns the token of an "Authorization: Bearer" value, or "".
// The scheme is matched case-insensitively.
func BearerToken(header string) string {
	if len(header) < len(common.BearerPrefix) || !strings.EqualFold(header[:len(common.BearerPrefix)], common.BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(common.BearerPrefix):])
}

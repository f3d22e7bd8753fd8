package research

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Sign produces the request signature the search-ad API expects:
// base64(HMAC-SHA256(secret, "{timestamp}.{method}.{uri}")).
func Sign(secret string, timestampMillis int64, method, uri string) string {
	msg := fmt.Sprintf("%d.%s.%s", timestampMillis, method, uri)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

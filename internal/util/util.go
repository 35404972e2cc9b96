package util

import (
    "crypto/hmac"
    "crypto/sha256"
    "encoding/hex"
    "strings"
)

// ExportScope is the message signed into CSV export links.
const ExportScope = "export:registrations"

func NormalizeBoolRU(s string) bool {
    s = strings.TrimSpace(strings.ToLower(s))
    switch s {
    case "да", "yes", "true", "1", "y":
        return true
    default:
        return false
    }
}

func HMACSHA256Hex(secret, msg string) string {
    mac := hmac.New(sha256.New, []byte(secret))
    mac.Write([]byte(msg))
    return hex.EncodeToString(mac.Sum(nil))
}

// ExportToken is the token accepted by the HTTP CSV export endpoint.
func ExportToken(secret string) string {
    return HMACSHA256Hex(secret, ExportScope)
}

// ValidExportToken compares in constant time. An empty secret accepts nothing.
func ValidExportToken(secret, token string) bool {
    if secret == "" {
        return false
    }
    return hmac.Equal([]byte(ExportToken(secret)), []byte(token))
}

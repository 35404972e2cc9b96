package util

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestNormalizeBoolRU(t *testing.T) {
    for _, s := range []string{"да", " Yes ", "TRUE", "1", "y"} {
        assert.True(t, NormalizeBoolRU(s), s)
    }
    for _, s := range []string{"нет", "no", "", "0", "maybe"} {
        assert.False(t, NormalizeBoolRU(s), s)
    }
}

func TestExportToken(t *testing.T) {
    tok := ExportToken("secret")
    assert.Len(t, tok, 64)
    assert.Equal(t, HMACSHA256Hex("secret", ExportScope), tok)
    assert.True(t, ValidExportToken("secret", tok))
    assert.False(t, ValidExportToken("other", tok))
    assert.False(t, ValidExportToken("secret", ""))
    assert.False(t, ValidExportToken("", ExportToken("")))
}

package normalize

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitRecipients(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitRecipients("a,b,c"))
	assert.Equal(t, []string{"a", "c"}, SplitRecipients("a,,c"))
	assert.Equal(t, []string{"a", "b"}, SplitRecipients(" a , b "))
	assert.Nil(t, SplitRecipients(""))
	assert.Nil(t, SplitRecipients(",,"))

	// Order preserved, duplicates kept.
	assert.Equal(t, []string{"x", "x", "y"}, SplitRecipients("x,x,y"))
}

func TestDecodeObfuscatedText(t *testing.T) {
	// Printable text inside a binary envelope.
	payload := base64.StdEncoding.EncodeToString([]byte("\x08\x01\x12hello there\x00\x03"))
	assert.Equal(t, "hello there", DecodeObfuscatedText(payload))

	// Plain Base64 text.
	plain := base64.StdEncoding.EncodeToString([]byte("short message"))
	assert.Equal(t, "short message", DecodeObfuscatedText(plain))

	// Not Base64: passed through untouched.
	assert.Equal(t, "not base64!!", DecodeObfuscatedText("not base64!!"))

	// Decodes to nothing printable: passed through.
	binary := base64.StdEncoding.EncodeToString([]byte{0x00, 0x01, 0x02})
	assert.Equal(t, binary, DecodeObfuscatedText(binary))
}

func TestStripURIScheme(t *testing.T) {
	assert.Equal(t, "/sdcard/DCIM/img.jpg", StripURIScheme("file:///sdcard/DCIM/img.jpg"))
	assert.Equal(t, "media/external/images/1", StripURIScheme("content://media/external/images/1"))
	assert.Equal(t, "/plain/path.jpg", StripURIScheme("/plain/path.jpg"))
}

package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFail(t *testing.T) {
	var buf bytes.Buffer
	code := Fail(&buf, "Error: %s not found. Please install OpenSSL.", "openssl")
	assert.Equal(t, ExitFailure, code)
	assert.Equal(t, "✗ Error: openssl not found. Please install OpenSSL.\n", buf.String())

	buf.Reset()
	Fail(&buf, "already terminated\n")
	assert.Equal(t, "✗ already terminated\n", buf.String())
}

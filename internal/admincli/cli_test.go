package admincli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func stubTerminal(t *testing.T, tty bool, answers ...string) {
	t.Helper()
	origRead, origTTY := readPassword, isTerminal
	t.Cleanup(func() { readPassword, isTerminal = origRead, origTTY })

	isTerminal = func(int) bool { return tty }
	readPassword = func(int) ([]byte, error) {
		a := answers[0]
		answers = answers[1:]
		return []byte(a), nil
	}
}

func TestHashPassword_Terminal(t *testing.T) {
	stubTerminal(t, true, "s3cret", "s3cret")
	var out, errOut bytes.Buffer

	code := Run([]string{"hash-password"}, strings.NewReader(""), &out, &errOut)
	require.Equal(t, 0, code, errOut.String())

	hash := strings.TrimSpace(out.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
	assert.Contains(t, errOut.String(), "Repeat password")
}

func TestHashPassword_Mismatch(t *testing.T) {
	stubTerminal(t, true, "one", "two")
	var out, errOut bytes.Buffer

	code := Run([]string{"hash-password"}, strings.NewReader(""), &out, &errOut)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), errPasswordMismatch.Error())
	assert.Empty(t, out.String())
}

func TestHashPassword_Piped(t *testing.T) {
	stubTerminal(t, false)
	var out, errOut bytes.Buffer

	code := Run([]string{"hash-password"}, strings.NewReader("piped-pw\n"), &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out.String())), []byte("piped-pw")))
}

func TestHashPassword_EmptyInput(t *testing.T) {
	stubTerminal(t, false)
	var out, errOut bytes.Buffer

	assert.Equal(t, 1, Run([]string{"hash-password"}, strings.NewReader(""), &out, &errOut))
}

func TestRun_Usage(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, 2, Run(nil, nil, &out, &errOut))
	assert.Equal(t, 2, Run([]string{"nope"}, nil, &out, &errOut))
	assert.Equal(t, 0, Run([]string{"help"}, nil, &out, &errOut))
	assert.Contains(t, out.String(), "hash-password")
}

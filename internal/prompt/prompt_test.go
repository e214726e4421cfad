package prompt

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubPasswords(t *testing.T, answers ...string) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	readPassword = func(int) ([]byte, error) {
		if len(answers) == 0 {
			return nil, errors.New("no more input")
		}
		a := answers[0]
		answers = answers[1:]
		return []byte(a), nil
	}
}

func TestGetSimpleText(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("hello world\n"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("lastline"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)
}

func TestGetPassword_Error(t *testing.T) {
	stubPasswords(t)
	var out bytes.Buffer
	_, err := GetPassword(&out, "Enter password")
	assert.Error(t, err)
}

func TestNewPassword(t *testing.T) {
	stubPasswords(t, "secret1", "secret1")
	var out bytes.Buffer

	pw, err := NewPassword(&out)
	require.NoError(t, err)
	assert.Equal(t, "secret1", string(pw))
	assert.Contains(t, out.String(), "Repeat password")
}

func TestNewPassword_Mismatch(t *testing.T) {
	stubPasswords(t, "secret1", "secret2")
	var out bytes.Buffer

	_, err := NewPassword(&out)
	assert.ErrorIs(t, err, ErrPasswordMismatch)
}

func TestNewPassword_ConfirmReadFails(t *testing.T) {
	stubPasswords(t, "secret1")
	var out bytes.Buffer

	_, err := NewPassword(&out)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrPasswordMismatch)
}

package cli

import (
	"bufio"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetSimpleText(t *testing.T) {
	reader := bufio.NewReader(strings.NewReader("  hello world  \n"))

	got, err := GetSimpleText(reader, "prompt")
	require.NoError(t, err)
	require.Equal(t, "hello world", got)
}

func TestGetPassword_UsesSeam(t *testing.T) {
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })

	readPassword = func(fd int) ([]byte, error) {
		return []byte("hunter2"), nil
	}

	got, err := GetPassword("Vault password")
	require.NoError(t, err)
	require.Equal(t, []byte("hunter2"), got)
}

func TestGetPassword_Error(t *testing.T) {
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })

	readPassword = func(fd int) ([]byte, error) {
		return nil, errors.New("no tty")
	}

	_, err := GetPassword("Vault password")
	require.Error(t, err)
}

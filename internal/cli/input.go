package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a seam so tests can stub terminal input.
var readPassword = term.ReadPassword

// GetSimpleText prompts and reads a single trimmed line.
func GetSimpleText(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Printf("%s: ", prompt)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword prompts and reads a line with echo disabled. The result
// stays a byte slice so callers can wipe it when done.
func GetPassword(prompt string) ([]byte, error) {
	fmt.Printf("%s: ", prompt)
	data, err := readPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, err
	}
	return data, nil
}

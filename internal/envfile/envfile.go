// Package envfile reads the KEY=VALUE connection files used to point the
// tool at a platform instance.
package envfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Well-known keys.
const (
	KeyBaseURL = "THINGWORX_BASE_URL"
	KeyAppKey  = "THINGWORX_APP_KEY"
)

// Load reads the file at path and parses it with Parse.
func Load(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read env file: %w", err)
	}
	defer f.Close()

	vars, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse env file %s: %w", path, err)
	}
	return vars, nil
}

// Parse returns one entry per line of the form KEY=VALUE. The key is the
// text before the first '=', the value everything after it; both are
// trimmed. Lines without '=', with an empty key or with nothing after the
// '=' are skipped. Later lines win over earlier ones. Lines may be of any
// length.
func Parse(r io.Reader) (map[string]string, error) {
	vars := make(map[string]string)
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			parseLine(vars, strings.TrimRight(line, "\r\n"))
		}
		if errors.Is(err, io.EOF) {
			return vars, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func parseLine(vars map[string]string, line string) {
	key, value, ok := strings.Cut(line, "=")
	if !ok || value == "" {
		return
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	vars[key] = strings.TrimSpace(value)
}

package config

import (
	"fmt"
	"log"
	"strings"
)

// Missing returns the names of required settings that are empty, in the given
// order. Pairs are (value, env name).
func Missing(pairs ...string) []string {
	var out []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i]) == "" {
			out = append(out, pairs[i+1])
		}
	}
	return out
}

func Require(pairs ...string) error {
	if missing := Missing(pairs...); len(missing) > 0 {
		return fmt.Errorf("missing required env %s", strings.Join(missing, ", "))
	}
	return nil
}

func MustNonEmpty(value, envName string) {
	if err := Require(value, envName); err != nil {
		log.Fatal(err)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	MustNonEmpty(string(value), envName)
}

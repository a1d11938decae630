package util

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadStockList reads instrument codes from the given files, one code per
// line. Blank lines and lines starting with '#' are skipped; duplicate codes
// keep their first occurrence.
func ReadStockList(paths []string) ([]string, error) {
	var codes []string
	seen := make(map[string]struct{})

	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening stock list: %w", err)
		}

		sc := bufio.NewScanner(f)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if _, dup := seen[line]; dup {
				continue
			}
			seen[line] = struct{}{}
			codes = append(codes, line)
		}
		err = sc.Err()
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("reading stock list %s: %w", path, err)
		}
	}
	return codes, nil
}

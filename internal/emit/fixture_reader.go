package emit

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// sqlLineRe matches a buffered statement line: sql << "INSERT ...";
var sqlLineRe = regexp.MustCompile(`^sql << ("(?:[^"\\]|\\.)*");$`)

// ReadFixture recovers the SQL statements of a rendered fixture, grouped by
// execution boundary. Statements after the last boundary are an error since
// the test harness would never execute them.
func ReadFixture(r io.Reader) ([][]string, error) {
	var (
		batches [][]string
		pending []string
		lineNum int
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())

		if line == fixtureExec {
			batches = append(batches, pending)
			pending = nil
			continue
		}

		m := sqlLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		stmt, err := strconv.Unquote(m[1])
		if err != nil {
			return nil, fmt.Errorf("read fixture: line %d: %w", lineNum, err)
		}
		pending = append(pending, stmt)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	if len(pending) > 0 {
		return nil, fmt.Errorf("read fixture: %d statements after last boundary", len(pending))
	}
	return batches, nil
}

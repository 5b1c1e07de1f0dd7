package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sawpanic/walkgate/internal/walkforward"
)

// ReadRows reads a JSONL results file in the shape WriteRows produces: one
// ResultRow per line, blank lines skipped.
func ReadRows(path string) ([]walkforward.ResultRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results file: %w", err)
	}
	defer file.Close()

	var rows []walkforward.ResultRow
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var row walkforward.ResultRow
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, fmt.Errorf("failed to parse results line %d: %w", lineNo, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read results file: %w", err)
	}
	return rows, nil
}

// internal/poller/cputemp.go
package poller

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// CPUTemperature reads a Linux thermal zone (millidegrees Celsius) and
// returns degrees with one decimal.
func CPUTemperature(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	milli, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return "", fmt.Errorf("cpu temperature %s: %w", path, err)
	}
	return strconv.FormatFloat(milli/1000, 'f', 1, 64), nil
}

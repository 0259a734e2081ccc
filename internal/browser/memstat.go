package browser

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// hostMemoryUsedPercent reads /proc/meminfo to compute the fraction of host
// memory currently in use. On platforms without /proc/meminfo it reports 0,
// i.e. "never treat the host as memory-constrained" — acceptable since the
// memory ceiling is an admission-control optimization, not a hard isolation
// guarantee.
func hostMemoryUsedPercent() float64 {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0
	}
	defer f.Close()

	var totalKB, availableKB int64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "MemTotal:"):
			totalKB = parseMeminfoValue(line)
		case strings.HasPrefix(line, "MemAvailable:"):
			availableKB = parseMeminfoValue(line)
		}
	}
	if totalKB == 0 {
		return 0
	}
	usedKB := totalKB - availableKB
	return float64(usedKB) / float64(totalKB) * 100
}

func parseMeminfoValue(line string) int64 {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0
	}
	v, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0
	}
	return v
}

package platform

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/schedgov/schedgov/pkg/errors"
)

// ProcessInfo names a live process.
type ProcessInfo struct {
	PID  int
	Name string
}

// ListProcesses enumerates live processes from /proc. Entries whose comm
// file vanishes mid-scan are skipped.
func ListProcesses() ([]ProcessInfo, error) {
	return listProcesses("/proc")
}

func listProcesses(procRoot string) ([]ProcessInfo, error) {
	entries, err := os.ReadDir(procRoot)
	if err != nil {
		return nil, errors.Wrap(err, errors.CollaboratorUnavailable, "proc enumeration failed")
	}

	var out []ProcessInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		comm, err := os.ReadFile(filepath.Join(procRoot, entry.Name(), "comm"))
		if err != nil {
			continue
		}
		out = append(out, ProcessInfo{
			PID:  pid,
			Name: strings.TrimSpace(string(comm)),
		})
	}
	return out, nil
}

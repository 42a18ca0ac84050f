package generator

import (
	"os"

	"github.com/shirou/gopsutil/v3/process"
)

// NewRSSSampler returns an RSSSampler that reports this process's
// resident set size, grounded on the teacher's collectMetrics
// (ws/server.go) process.NewProcess(os.Getpid())/MemoryInfo().RSS
// pattern, repurposed here from a periodic stats-struct update into a
// one-shot sampler the generator polls between orders.
func NewRSSSampler() (func() (uint64, error), error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return func() (uint64, error) {
		memInfo, err := proc.MemoryInfo()
		if err != nil {
			return 0, err
		}
		return memInfo.RSS, nil
	}, nil
}

package benchmarker

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Environment describes the machine a benchmark ran on. It is stored with
// every run of the catalog so results from different hosts can be told apart.
type Environment struct {
	Hostname        string `json:"hostname"`
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platform_version"`
	CPUCount        int    `json:"cpu_count"`
	TotalMemory     uint64 `json:"total_memory"`
}

// CaptureEnvironment collects the description of the current machine. Fields
// that cannot be read are left at their zero values.
func CaptureEnvironment() Environment {
	environment := Environment{CPUCount: runtime.NumCPU()}

	if info, err := host.Info(); err == nil {
		environment.Hostname = info.Hostname
		environment.Platform = info.Platform
		environment.PlatformVersion = info.PlatformVersion
	}
	if memory, err := mem.VirtualMemory(); err == nil {
		environment.TotalMemory = memory.Total
	}
	return environment
}

// Fingerprint returns a compact identifier of the environment.
func (e Environment) Fingerprint() string {
	return fmt.Sprintf("%s/%s/%dcpu", e.Hostname, e.Platform, e.CPUCount)
}

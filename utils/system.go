package utils

import (
	"log"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// CheckBrowserResources logs the machine's CPU and memory headroom
// before a headless browser is launched, and warns when the host looks
// too small to render marketplace pages reliably.
func CheckBrowserResources() {
	cores, err := cpu.Counts(true)
	if err != nil {
		log.Printf("WARN: could not detect CPU cores: %v", err)
		cores = 0
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		log.Printf("WARN: could not read memory stats: %v", err)
		return
	}

	availMB := vm.Available / (1024 * 1024)
	log.Printf("System resources: %d logical cores, %d MB memory available", cores, availMB)

	if cores > 0 && cores < 2 {
		log.Println("WARN: fewer than 2 logical cores; headless page loads may be slow")
	}
	if availMB < 512 {
		log.Printf("WARN: only %d MB memory available; the browser may fail to launch", availMB)
	}
}

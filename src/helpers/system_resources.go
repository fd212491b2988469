package helpers

import "fmt"

// GetRecommendedMemoryLimit calculates a safe memory limit for the snapshot
// history cache. Policy: half of total RAM, floor 256MB.
// Fallback when memory cannot be determined: 256MB.
func GetRecommendedMemoryLimit() int {
	// Call OS-specific implementation
	totalMB := GetTotalSystemMemoryMB()
	if totalMB == 0 {
		fmt.Println("Warning: Could not determine system memory. Defaulting to 256MB.")
		return 256
	}

	limit := totalMB / 2

	if limit < 256 {
		if totalMB < 256 {
			return totalMB // Very low memory system
		}
		return 256
	}

	return limit
}

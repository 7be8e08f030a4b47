package audio

// ResetInstance forgets the process-wide Device and the driver chosen for it.
func ResetInstance() {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	instance = nil
	defaultDriver = nil
}

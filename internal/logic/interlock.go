package logic

// AllowedToDrive derives the "may drive output" decision from the debounced
// interlock input. When the interlock is enabled and the input is asserted,
// driving is disallowed and the caller must disarm the output.
//
// There is no automatic re-arm: once disarmed, the output stays off until an
// explicit re-arm action (mode selection or profile application), even after
// the input de-asserts.
func AllowedToDrive(stableInput, interlockEnabled bool) bool {
	return !(interlockEnabled && stableInput)
}

package machine

// CommandKind names an externally issued control command.
type CommandKind string

const (
	CmdPowerOn   CommandKind = "power_on"
	CmdPowerOff  CommandKind = "power_off"
	CmdApplyMode CommandKind = "apply_mode"
	CmdSetLimit  CommandKind = "set_limit"
)

// Command is a control command queued from an external surface (HTTP, UI).
// Commands are drained and applied by the control loop only; producers
// never touch the machine or the pins directly.
type Command struct {
	Kind    CommandKind
	Mode    int  // apply_mode only
	Enabled bool // set_limit only
}

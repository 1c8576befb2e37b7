package workflow

// Trigger represents a user action that moves a statement between states
type Trigger string

const (
	TriggerGenerate Trigger = "generate"
	TriggerConfirm  Trigger = "confirm"
	TriggerExport   Trigger = "export"
	TriggerReset    Trigger = "reset"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

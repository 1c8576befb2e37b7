package workflow

var statementBuilder = newStatementBuilder()

// newStatementBuilder wires the statement lifecycle:
//
//	draft -> generated -> confirmed -> exported
//
// Regeneration is allowed until confirmation. Reset returns to draft from anywhere.
func newStatementBuilder() StateMachineBuilder {
	builder := NewBuilder()

	builder.Configure(StateDraft).
		Permit(TriggerGenerate, StateGenerated).
		Permit(TriggerReset, StateDraft)

	builder.Configure(StateGenerated).
		Permit(TriggerGenerate, StateGenerated).
		Permit(TriggerConfirm, StateConfirmed).
		Permit(TriggerReset, StateDraft)

	builder.Configure(StateConfirmed).
		Permit(TriggerExport, StateExported).
		Permit(TriggerReset, StateDraft)

	builder.Configure(StateExported).
		Permit(TriggerExport, StateExported).
		Permit(TriggerReset, StateDraft)

	return builder
}

// NewStatementMachine returns a lifecycle machine positioned at the stored status.
func NewStatementMachine(status string) (StateMachine, error) {
	return statementBuilder.Build(State(status))
}

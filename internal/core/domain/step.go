package domain

// StepStatus is a custom type for our step state-machine ENUM.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepCurrent   StepStatus = "current"
	StepCompleted StepStatus = "completed"
	StepVerified  StepStatus = "verified"
)

// StepDefinition describes one phase of the verification flow: its
// position in the sequence, the fields it collects and the document
// types it requires before it can be submitted. Immutable.
type StepDefinition struct {
	ID        string
	Title     string
	Order     int // unique, defines the sequence
	Level     int // 1..3, the tier this step belongs to
	Required  bool
	Fields    []FieldDefinition
	Documents []DocumentType // required document type tags, may be empty
}

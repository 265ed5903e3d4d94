package domain

// Status tags the outcome of a banking operation.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusError     Status = "error"
	StatusInfo      Status = "info"
	StatusWarning   Status = "warning"
	StatusNoResults Status = "no_results"
)

// Option is one enumerated choice of a selection prompt.
type Option struct {
	ID   string `json:"id" yaml:"id" mapstructure:"id"`
	Text string `json:"text" yaml:"text" mapstructure:"text"`
}

// Result is the tagged outcome of a data-access call. Callers branch on
// Status and the flags, never on the shape of Data.
type Result struct {
	Status               Status   `json:"status"`
	Message              string   `json:"message"`
	RequiresSelection    bool     `json:"requires_selection,omitempty"`
	Options              []Option `json:"options,omitempty"`
	RequiresContinuation bool     `json:"requires_continuation,omitempty"`
	Continuation         *Process `json:"continuation,omitempty"`
	ProcessComplete      bool     `json:"process_complete,omitempty"`
	// FailedStep names the slot that failed validation inside a workflow.
	FailedStep Step `json:"failed_step,omitempty"`
	Data       any  `json:"data,omitempty"`
}

// OK reports a success status.
func (r *Result) OK() bool {
	return r != nil && r.Status == StatusSuccess
}

func Success(msg string, data any) *Result {
	return &Result{Status: StatusSuccess, Message: msg, Data: data}
}

func Failure(msg string) *Result {
	return &Result{Status: StatusError, Message: msg}
}

func Info(msg string) *Result {
	return &Result{Status: StatusInfo, Message: msg}
}

func Warning(msg string, data any) *Result {
	return &Result{Status: StatusWarning, Message: msg, Data: data}
}

// Selection asks the user to pick one of opts.
func Selection(msg string, opts []Option) *Result {
	return &Result{Status: StatusInfo, Message: msg, RequiresSelection: true, Options: opts}
}

// Continue asks for the next slot of proc.
func Continue(msg string, proc *Process) *Result {
	return &Result{Status: StatusInfo, Message: msg, RequiresContinuation: true, Continuation: proc}
}

package harness

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq    int            `json:"seq"`
	Op     string         `json:"op"`
	At     string         `json:"at"`
	Args   map[string]any `json:"args,omitempty"`
	Kind   string         `json:"kind"`
	Output any            `json:"output,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every step expectation matched.
	Pass bool `json:"pass"`

	// Trace holds the executed steps in order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds expectation mismatches. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a mismatch and fails the result.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

type favoritesOutput struct {
	IDs          []int  `json:"ids"`
	LastModified string `json:"last_modified,omitempty"`
}

type syncOutput struct {
	IDs       []int  `json:"ids"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp,omitempty"`
}

type playedOutput struct {
	Played []string `json:"played"`
}

type valueOutput struct {
	Value bool `json:"value"`
}

type stateOutput struct {
	State string `json:"state"`
}

type visitOutput struct {
	GameID    string `json:"game_id"`
	URL       string `json:"url"`
	ClickTime string `json:"click_time"`
}

type statusOutput struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	Favorites     []int  `json:"favorites"`
	Source        string `json:"source,omitempty"`
}

type errorOutput struct {
	Error string `json:"error"`
}

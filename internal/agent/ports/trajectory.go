package ports

// Step is one record in an agent trajectory. Action and Observation are
// always present; Response and Thought are kept when the environment loop
// records them.
type Step struct {
	Action      string `json:"action"`
	Observation string `json:"observation"`
	Response    string `json:"response,omitempty"`
	Thought     string `json:"thought,omitempty"`
}

// Trajectory is the ordered sequence of steps taken during one attempt.
type Trajectory []Step

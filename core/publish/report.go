package publish

import (
	"errors"
	"time"
)

// Outcome summarizes a publish across targets.
type Outcome string

const (
	// OutcomeSuccess means every target swapped.
	OutcomeSuccess Outcome = "success"
	// OutcomeDegraded means some targets swapped and others kept their previous contents.
	OutcomeDegraded Outcome = "degraded"
	// OutcomeFailed means no target swapped.
	OutcomeFailed Outcome = "failed"
)

// TargetResult is the outcome of one target.
type TargetResult struct {
	Target     string        `json:"target"`
	Production string        `json:"production"`
	SessionID  string        `json:"session_id"`
	Staging    string        `json:"staging,omitempty"`
	Outcome    Outcome       `json:"outcome"`
	State      State         `json:"state"`
	Kind       Kind          `json:"kind,omitempty"`
	Retryable  bool          `json:"retryable,omitempty"`
	Error      string        `json:"error,omitempty"`
	Warnings   []string      `json:"warnings,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Report is the outcome of one publish call.
type Report struct {
	Dataset   string         `json:"dataset"`
	Rows      int            `json:"rows"`
	Outcome   Outcome        `json:"outcome"`
	Targets   []TargetResult `json:"targets"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
}

// Succeeded returns the names of targets that swapped.
func (r *Report) Succeeded() []string {
	return r.filter(OutcomeSuccess)
}

// Failed returns the names of targets that kept their previous contents.
func (r *Report) Failed() []string {
	return r.filter(OutcomeFailed)
}

func (r *Report) filter(o Outcome) []string {
	var names []string
	for _, t := range r.Targets {
		if t.Outcome == o {
			names = append(names, t.Target)
		}
	}
	return names
}

func resultOf(sess *Session, err error, elapsed time.Duration) TargetResult {
	res := TargetResult{
		Target:     sess.Target,
		Production: sess.Production,
		SessionID:  sess.ID,
		Staging:    sess.Staging,
		Outcome:    OutcomeSuccess,
		State:      sess.State,
		Warnings:   append([]string(nil), sess.Warnings...),
		Duration:   elapsed,
	}
	if err != nil {
		res.Outcome = OutcomeFailed
		res.State = StateAborted
		res.Error = err.Error()
		var pe *Error
		if errors.As(err, &pe) {
			res.Kind = pe.Kind
			res.Retryable = pe.Retryable()
		}
	}
	return res
}

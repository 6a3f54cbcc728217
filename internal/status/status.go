// Package status derives canonical lifecycle phases from the status blobs the
// control plane reports for workspaces and releases.
//
// Status blobs vary across controller versions, so each blob is first parsed
// into an Observed value and then resolved with a fixed precedence: phase,
// newest condition, state flags, fallback.
package status

import (
	"strings"
	"time"

	"github.com/lzjever/wsorch/internal/core"
)

type Condition struct {
	Type               string
	Status             string
	LastTransitionTime time.Time
}

// Flag identifies a boolean or state indicator found in a status blob.
type Flag string

const (
	FlagTerminated Flag = "terminated"
	FlagStopping   Flag = "stopping"
	FlagRunning    Flag = "running"
	FlagReady      Flag = "ready"
	FlagPending    Flag = "pending"
)

// flagOrder is the precedence used when more than one flag is set.
var flagOrder = []Flag{FlagTerminated, FlagStopping, FlagRunning, FlagReady, FlagPending}

// Observed is the structural view of a status blob.
type Observed struct {
	Empty      bool
	Phase      string
	Conditions []Condition
	Flags      map[Flag]bool
}

// Parse reads a raw status blob. It never fails; fields with unexpected
// types are ignored.
func Parse(blob map[string]any) Observed {
	if len(blob) == 0 {
		return Observed{Empty: true}
	}
	obs := Observed{Flags: map[Flag]bool{}}

	if p, ok := blob["phase"].(string); ok {
		obs.Phase = p
	}

	if conds, ok := blob["conditions"].([]any); ok {
		for _, c := range conds {
			m, ok := c.(map[string]any)
			if !ok {
				continue
			}
			cond := Condition{}
			cond.Type, _ = m["type"].(string)
			cond.Status, _ = m["status"].(string)
			if ts, ok := m["lastTransitionTime"].(string); ok {
				cond.LastTransitionTime, _ = time.Parse(time.RFC3339, ts)
			}
			if cond.Type != "" {
				obs.Conditions = append(obs.Conditions, cond)
			}
		}
	}

	for _, f := range flagOrder {
		if flagSet(blob[string(f)]) {
			obs.Flags[f] = true
		}
	}
	// Container-state shape: {"state": {"running": {...}}}.
	if st, ok := blob["state"].(map[string]any); ok {
		for _, f := range flagOrder {
			if flagSet(st[string(f)]) {
				obs.Flags[f] = true
			}
		}
	}
	return obs
}

func flagSet(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "true")
	case map[string]any:
		return t != nil
	default:
		return false
	}
}

// Latest returns the condition with the most recent transition time. Ties
// keep the earlier entry.
func (o Observed) Latest() (Condition, bool) {
	if len(o.Conditions) == 0 {
		return Condition{}, false
	}
	latest := o.Conditions[0]
	for _, c := range o.Conditions[1:] {
		if c.LastTransitionTime.After(latest.LastTransitionTime) {
			latest = c
		}
	}
	return latest, true
}

func (o Observed) firstFlag() (Flag, bool) {
	for _, f := range flagOrder {
		if o.Flags[f] {
			return f, true
		}
	}
	return "", false
}

// Workspace maps a workspace status blob to its canonical phase.
func Workspace(blob map[string]any) core.Phase {
	return WorkspacePhase(Parse(blob))
}

// WorkspacePhase resolves o with precedence phase, newest condition, flags.
// Unlike releases, a Ready=True condition means Running and Failed=True means
// Terminated, since Success and Failed are not workspace phases.
func WorkspacePhase(o Observed) core.Phase {
	if o.Empty {
		return core.PhaseStopped
	}
	if o.Phase != "" {
		return core.Phase(o.Phase)
	}
	if c, ok := o.Latest(); ok {
		switch {
		case c.Type == "Ready" && c.Status == "True":
			return core.PhaseRunning
		case c.Type == "Failed" && c.Status == "True":
			return core.PhaseTerminated
		default:
			return core.Phase(c.Type)
		}
	}
	if f, ok := o.firstFlag(); ok {
		switch f {
		case FlagTerminated:
			return core.PhaseTerminated
		case FlagStopping:
			return core.PhaseStopping
		case FlagRunning, FlagReady:
			return core.PhaseRunning
		case FlagPending:
			return core.PhasePending
		}
	}
	return core.PhaseUnknown
}

// Release maps a release status blob to its canonical phase.
func Release(blob map[string]any) core.Phase {
	return ReleasePhase(Parse(blob))
}

func ReleasePhase(o Observed) core.Phase {
	if o.Empty {
		return core.PhasePending
	}
	if o.Phase != "" {
		return core.Phase(o.Phase)
	}
	if c, ok := o.Latest(); ok {
		switch {
		case c.Type == "Ready" && c.Status == "True":
			return core.PhaseSuccess
		case c.Type == "Failed" && c.Status == "True":
			return core.PhaseFailed
		default:
			return core.Phase(c.Type)
		}
	}
	if f, ok := o.firstFlag(); ok {
		switch f {
		case FlagReady:
			return core.PhaseSuccess
		case FlagTerminated:
			return core.PhaseFailed
		case FlagPending:
			return core.PhasePending
		default:
			return core.PhaseProcessing
		}
	}
	return core.PhaseProcessing
}

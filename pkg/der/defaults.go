package der

import "github.com/psu-powerlab/se2030/pkg/events"

// UpdateDefaults recomputes dev's default-controls overlay against its
// current ActiveMask and primacy-ordered Programs, per spec.md §4.8.
// For each program in primacy order, whatever its DefaultDERControl
// still has uncovered goes into the rebuilt list; a program not
// already present in the prior overlay fires DEFAULT_START exactly
// once when it first appears, even if the bits it supplies shrink or
// grow on a later recompute while it stays present. One no longer
// represented in the rebuilt list fires exactly one DEFAULT_END.
// Called at the end of every ScheduleDER pass and whenever
// Activate/Deactivate changes ActiveMask
// — the open question about the missing `update_der` hook (spec.md §9)
// is resolved by tying the recompute to every ActiveMask change, not
// only EVENT_END, since §4.8 says "on every schedule recomputation"
// and an activation is itself a recomputation of device.active.
func UpdateDefaults(dev *DerDevice, bus *events.Bus) {
	uncovered := ^dev.ActiveMask

	previous := make(map[string]*DefaultControl)
	for d := dev.Defaults; d != nil; d = d.Next {
		previous[d.Program.Key] = d
	}

	var head, tail *DefaultControl
	seen := make(map[string]bool, len(previous))

	for _, p := range dev.Programs {
		if p.Default == nil {
			continue
		}
		supplied := p.Default.SourceMask & uncovered
		if supplied == 0 {
			continue
		}
		uncovered &^= supplied

		node := &DefaultControl{Program: p, SourceMask: p.Default.SourceMask, Mask: supplied}
		if head == nil {
			head = node
		} else {
			tail.Next = node
		}
		tail = node
		seen[p.Key] = true

		if _, ok := previous[p.Key]; !ok {
			bus.Publish(events.Event{Kind: events.DefaultStart, Subject: node})
		}
	}

	for key, old := range previous {
		if !seen[key] {
			bus.Publish(events.Event{Kind: events.DefaultEnd, Subject: old})
		}
	}

	dev.Defaults = head
}

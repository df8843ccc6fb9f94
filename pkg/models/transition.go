package models

// AggregateDelta is the signed adjustment a status transition implies for the
// location counters. The knock count is never part of a delta; it is
// incremented unconditionally by the knock operation.
type AggregateDelta struct {
	DoorsOpened int
	Leads       int
	Rejections  int
}

// IsZero reports whether the delta changes nothing.
func (d AggregateDelta) IsZero() bool {
	return d.DoorsOpened == 0 && d.Leads == 0 && d.Rejections == 0
}

// ComputeTransition decides a requested status change. It returns the counter
// delta the change implies and whether the status write should happen at all.
//
// Downgrades (rank(to) < rank(from)) are rejected as no-ops, not errors: the
// caller keeps the current state. Equal-rank transitions between lead and
// rejection are the one permitted sideways move; each undoes the counter of
// the state it replaces.
//
// The function is pure and total over all (from, to) pairs.
func ComputeTransition(from, to DoorStatusValue) (AggregateDelta, bool) {
	if Rank(to) < Rank(from) {
		return AggregateDelta{}, false
	}

	var delta AggregateDelta
	switch to {
	case StatusOpened:
		if from == StatusOpened {
			// Same rank, same state: nothing to write.
			return AggregateDelta{}, false
		}
		delta.DoorsOpened = 1 // from must be not_opened here

	case StatusLead:
		if from == StatusNotOpened {
			delta.DoorsOpened = 1 // opening is implied
		}
		if from != StatusLead {
			delta.Leads = 1
		}
		if from == StatusRejection {
			delta.Rejections = -1
		}

	case StatusRejection:
		if from == StatusNotOpened {
			delta.DoorsOpened = 1 // opening is implied
		}
		if from != StatusRejection {
			delta.Rejections = 1
		}
		if from == StatusLead {
			delta.Leads = -1
		}

	default:
		// to == not_opened is always a downgrade or a repeat of the
		// initial state; never written.
		return AggregateDelta{}, false
	}

	return delta, true
}

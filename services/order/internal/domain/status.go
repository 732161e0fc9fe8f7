package domain

// statusSequences lists the happy path per delivery method. Cancelled sits
// outside both sequences.
var statusSequences = map[DeliveryMethod][]OrderStatus{
	DeliveryMethodDelivery: {StatusPending, StatusConfirmed, StatusPreparing, StatusOutForDelivery, StatusDelivered},
	DeliveryMethodPickup:   {StatusPending, StatusConfirmed, StatusPreparing, StatusReadyForPickup, StatusPickedUp},
}

func Sequence(m DeliveryMethod) []OrderStatus {
	seq := statusSequences[m]
	out := make([]OrderStatus, len(seq))
	copy(out, seq)
	return out
}

func IsTerminal(s OrderStatus) bool {
	return s == StatusDelivered || s == StatusPickedUp || s == StatusCancelled
}

func indexOf(seq []OrderStatus, s OrderStatus) int {
	for i, v := range seq {
		if v == s {
			return i
		}
	}
	return -1
}

func successor(m DeliveryMethod, s OrderStatus) (OrderStatus, bool) {
	seq := statusSequences[m]
	idx := indexOf(seq, s)
	if idx < 0 || idx+1 >= len(seq) {
		return "", false
	}
	return seq[idx+1], true
}

// CanTransition reports whether target is a legal next status for the order:
// the same status, the sequence successor, or cancellation of a non-terminal order.
func CanTransition(o *Order, target OrderStatus) bool {
	if o == nil || !target.Valid() {
		return false
	}
	if target == o.Status {
		return true
	}
	if IsTerminal(o.Status) {
		return false
	}
	if target == StatusCancelled {
		return true
	}
	next, ok := successor(o.DeliveryMethod, o.Status)
	return ok && next == target
}

// NextStatuses lists the statuses an admin may move the order to.
func NextStatuses(o *Order) []OrderStatus {
	if o == nil || IsTerminal(o.Status) {
		return nil
	}
	var out []OrderStatus
	if next, ok := successor(o.DeliveryMethod, o.Status); ok {
		out = append(out, next)
	}
	return append(out, StatusCancelled)
}

// Progress is (index of current status + 1) / sequence length, or 0 when the
// status is not part of the order's sequence (cancelled).
func Progress(o *Order) float64 {
	seq := statusSequences[o.DeliveryMethod]
	idx := indexOf(seq, o.Status)
	if idx < 0 {
		return 0
	}
	return float64(idx+1) / float64(len(seq))
}

type Stage struct {
	Status  OrderStatus `json:"status"`
	Reached bool        `json:"reached"`
	Current bool        `json:"current"`
}

func Stages(o *Order) []Stage {
	seq := statusSequences[o.DeliveryMethod]
	idx := indexOf(seq, o.Status)
	out := make([]Stage, 0, len(seq))
	for i, s := range seq {
		out = append(out, Stage{
			Status:  s,
			Reached: idx >= 0 && i <= idx,
			Current: i == idx,
		})
	}
	return out
}

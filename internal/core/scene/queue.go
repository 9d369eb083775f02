package scene

// TransitionKind is the direction of a queued membership change.
type TransitionKind uint8

const (
	Attach TransitionKind = iota + 1
	Detach
)

func (k TransitionKind) String() string {
	switch k {
	case Attach:
		return "attach"
	case Detach:
		return "detach"
	default:
		return "unknown"
	}
}

// Transition is one queued readiness change, captured by value at notification time.
type Transition struct {
	Kind      TransitionKind
	Component Component
}

type record struct {
	Transition
	superseded bool
}

// mailbox is the single-threaded FIFO between readiness notifications and the drain.
// Posting a transition for a component that already has one queued marks the older
// record superseded, so each component contributes at most its latest transition to a
// drain.
type mailbox struct {
	records []record
	latest  map[Component]int
	live    int
}

func newMailbox() mailbox {
	return mailbox{latest: make(map[Component]int)}
}

func (q *mailbox) post(kind TransitionKind, c Component) {
	if i, ok := q.latest[c]; ok {
		q.records[i].superseded = true
		q.live--
	}
	q.latest[c] = len(q.records)
	q.records = append(q.records, record{Transition: Transition{Kind: kind, Component: c}})
	q.live++
}

// take returns the live transitions in submission order and empties the mailbox.
func (q *mailbox) take() []Transition {
	if q.live == 0 {
		q.reset()
		return nil
	}
	out := make([]Transition, 0, q.live)
	for _, r := range q.records {
		if !r.superseded {
			out = append(out, r.Transition)
		}
	}
	q.reset()
	return out
}

func (q *mailbox) reset() {
	clear(q.records)
	q.records = q.records[:0]
	clear(q.latest)
	q.live = 0
}

// pending returns the queued transition of c, if any.
func (q *mailbox) pending(c Component) (TransitionKind, bool) {
	i, ok := q.latest[c]
	if !ok {
		return 0, false
	}
	return q.records[i].Kind, true
}

// len is the number of live transitions.
func (q *mailbox) len() int { return q.live }

// snapshot returns the live transitions without draining them.
func (q *mailbox) snapshot() []Transition {
	out := make([]Transition, 0, q.live)
	for _, r := range q.records {
		if !r.superseded {
			out = append(out, r.Transition)
		}
	}
	return out
}

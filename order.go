package orderflow

// Status represents the current state of an order as it moves through
// the crew. Orders start pending, become customized after validation,
// and end priced on success or failed on the first stage error.
type Status int

const (
	StatusPending Status = iota
	StatusCustomized
	StatusPriced
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusCustomized:
		return "customized"
	case StatusPriced:
		return "priced"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the status as its lowercase name, so results
// serialize cleanly to JSON and CSV without callers mapping enum values.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether no further stage may run on an order in this state.
func (s Status) Terminal() bool {
	return s == StatusPriced || s == StatusFailed
}

// Order is the record threaded through the crew. Size and Color are
// validated by the customization stage; Design and Text feed the pricing
// model unchecked. EstimatedCost is undefined until the pricing stage
// completes, and Err is set only when Status is StatusFailed.
//
// An Order is exclusively owned by the single crew run processing it.
// The batch runner enforces this by handing each concurrent run its
// own Clone rather than sharing one value across goroutines.
type Order struct {
	ID       int
	Customer string
	Size     string
	Color    string
	Design   string
	Text     string

	EstimatedCost float64
	Status        Status
	Err           error
}

// Clone returns an isolated copy of the order. All fields are plain
// values today, but concurrent runs always go through Clone so that
// adding a slice or map field later cannot introduce sharing.
func (o Order) Clone() Order {
	return o
}

// Result is the outcome record reported for one order. EstimatedCost is
// meaningful only when Status is StatusPriced; Err is non-nil only when
// Status is StatusFailed.
type Result struct {
	OrderID       int
	Status        Status
	EstimatedCost float64
	Err           error
}

// Failed reports whether the order's crew run halted on a stage error.
func (r Result) Failed() bool {
	return r.Status == StatusFailed
}

package domain

// Line is one product quantity to take out of stock.
type Line struct {
	ProductID int64
	Quantity  int
}

type Outcome string

const (
	Decremented Outcome = "decremented"
	// Skipped means the product had fewer units than asked for, or is gone.
	// Stock was left untouched.
	Skipped Outcome = "skipped"
)

type Adjustment struct {
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Outcome   Outcome `json:"outcome"`
}

type Result struct {
	Adjustments []Adjustment `json:"adjustments"`
}

// Applied reports whether at least one line was taken out of stock.
func (r Result) Applied() bool {
	for _, a := range r.Adjustments {
		if a.Outcome == Decremented {
			return true
		}
	}
	return false
}

func (r Result) Skipped() []Adjustment {
	var out []Adjustment
	for _, a := range r.Adjustments {
		if a.Outcome == Skipped {
			out = append(out, a)
		}
	}
	return out
}

package currency

import "math"

const defaultSpread = 0.005

// spreads are the fee charged on top of the mid rate, as a fraction.
var spreads = map[pair]float64{
	{"USD", "SGD"}: 0.005,
	{"SGD", "USD"}: 0.005,
	{"USD", "EUR"}: 0.004,
	{"EUR", "USD"}: 0.004,
	{"SGD", "EUR"}: 0.006,
	{"EUR", "SGD"}: 0.006,
}

// Quote is a priced conversion, shown before a transfer is confirmed.
type Quote struct {
	From      string
	To        string
	Amount    float64
	Rate      float64
	Converted float64
	Fee       float64
	Received  float64
}

// NewQuote prices converting amount. The fee is charged in the destination
// currency and amounts are rounded to cents.
func NewQuote(amount float64, from, to string) (Quote, error) {
	f, err := Normalize(from)
	if err != nil {
		return Quote{}, err
	}
	t, err := Normalize(to)
	if err != nil {
		return Quote{}, err
	}
	r, err := Rate(f, t)
	if err != nil {
		return Quote{}, err
	}
	converted, _ := Convert(amount, f, t)

	q := Quote{From: f, To: t, Amount: amount, Rate: r, Converted: round2(converted)}
	if f != t {
		spread, ok := spreads[pair{f, t}]
		if !ok {
			spread = defaultSpread
		}
		q.Fee = round2(converted * spread)
	}
	q.Received = round2(q.Converted - q.Fee)
	return q, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package enums

// AdjustmentType is the direction of a stock adjustment.
type AdjustmentType string

const (
	AdjustmentIncoming AdjustmentType = "incoming"
	AdjustmentOutgoing AdjustmentType = "outgoing"
)

var adjustmentTypes = []AdjustmentType{AdjustmentIncoming, AdjustmentOutgoing}

func (t AdjustmentType) String() string { return string(t) }

// Sign returns +1 for incoming and -1 for outgoing adjustments.
func (t AdjustmentType) Sign() int {
	if t == AdjustmentOutgoing {
		return -1
	}
	return 1
}

func ParseAdjustmentType(value string) (AdjustmentType, error) {
	return parse(adjustmentTypes, "adjustment type", value)
}

package types

type Side string

type OrderType string

const (
	SideTypeBuy  Side = "BUY"
	SideTypeSell Side = "SELL"

	TypeLimit  OrderType = "LIMIT"
	TypeMarket OrderType = "MARKET"
)

func (s Side) Valid() bool {
	return s == SideTypeBuy || s == SideTypeSell
}

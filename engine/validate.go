package engine

import (
	"github.com/rustyeddy/brokerage/broker"
	"github.com/shopspring/decimal"
)

// validateRequest is the static gate an order must pass before it ever
// reaches pending.
func validateRequest(req OrderRequest, in broker.Instrument) error {
	if !in.Active {
		return &broker.ValidationError{Field: "symbol", Reason: "instrument is not active"}
	}

	switch req.Side {
	case broker.Buy, broker.Sell:
	default:
		return &broker.ValidationError{Field: "side", Reason: "must be buy or sell"}
	}

	if req.Quantity.Sign() <= 0 {
		return &broker.ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	if !in.QuantityInBounds(req.Quantity) {
		return &broker.ValidationError{
			Field:  "quantity",
			Reason: "outside instrument bounds [" + in.MinQuantity.String() + ", " + in.MaxQuantity.String() + "]",
		}
	}

	switch req.Type {
	case broker.OrderMarket:
		if req.Price != nil {
			return &broker.ValidationError{Field: "price", Reason: "not allowed for market orders"}
		}
		if req.StopPrice != nil {
			return &broker.ValidationError{Field: "stop_price", Reason: "not allowed for market orders"}
		}

	case broker.OrderLimit:
		if err := requirePrice(in, "price", req.Price); err != nil {
			return err
		}
		if req.StopPrice != nil {
			return &broker.ValidationError{Field: "stop_price", Reason: "not allowed for limit orders"}
		}

	case broker.OrderStop:
		if err := requirePrice(in, "stop_price", req.StopPrice); err != nil {
			return err
		}
		if req.Price != nil {
			return &broker.ValidationError{Field: "price", Reason: "not allowed for stop orders"}
		}

	case broker.OrderStopLimit:
		if err := requirePrice(in, "price", req.Price); err != nil {
			return err
		}
		if err := requirePrice(in, "stop_price", req.StopPrice); err != nil {
			return err
		}

	default:
		return &broker.ValidationError{Field: "type", Reason: "unknown order type"}
	}

	return nil
}

func requirePrice(in broker.Instrument, field string, p *decimal.Decimal) error {
	if p == nil {
		return &broker.ValidationError{Field: field, Reason: "required"}
	}
	if p.Sign() <= 0 {
		return &broker.ValidationError{Field: field, Reason: "must be positive"}
	}
	if !in.AlignsToTick(*p) {
		return &broker.ValidationError{
			Field:  field,
			Reason: "not a multiple of tick size " + in.TickSize.String(),
		}
	}
	return nil
}

package payment

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aaryaclothing/commerce-core/pkg/enums"
	"github.com/aaryaclothing/commerce-core/pkg/logger"
)

// Request carries everything a provider needs to start collecting payment.
type Request struct {
	OrderID  uuid.UUID
	OwnerID  string
	Amount   decimal.Decimal
	Currency enums.Currency
}

// Handle identifies an initiated payment at the provider.
type Handle struct {
	ProviderRef string
}

// Gateway starts payment collection for an order. The outcome arrives later
// through the provider callback, never from Initiate.
type Gateway interface {
	Initiate(ctx context.Context, req Request) (*Handle, error)
}

// loggingGateway is the development stand-in: it accepts every initiation and
// logs it. Real providers implement Gateway behind the same seam.
type loggingGateway struct {
	logg *logger.Logger
}

func NewLoggingGateway(logg *logger.Logger) Gateway {
	return &loggingGateway{logg: logg}
}

func (g *loggingGateway) Initiate(ctx context.Context, req Request) (*Handle, error) {
	ctx = g.logg.WithOrderID(ctx, req.OrderID.String())
	ctx = g.logg.WithFields(ctx, map[string]any{
		"amount":   req.Amount.StringFixed(2),
		"currency": req.Currency.String(),
	})
	g.logg.Info(ctx, "payment initiation accepted")
	return &Handle{ProviderRef: "dev-" + req.OrderID.String()}, nil
}

package catalog

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/vending-machine/internal/application"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/identity"
	domain "github.com/Zhima-Mochi/vending-machine/internal/domain/inventory"
	"github.com/Zhima-Mochi/vending-machine/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	catalogService = "catalog-service"

	useCaseCreate = "catalog.create_product"
	useCaseUpdate = "catalog.update_product"
	useCaseDelete = "catalog.delete_product"
	useCaseGet    = "catalog.get_product"
	useCaseList   = "catalog.list_products"
)

type CreateCommand struct {
	Caller identity.Identity
	Name   string
	Cost   int64
	Stock  int
}

type CreateUseCase struct {
	products domain.Repository
	ids      application.IDGenerator
	in       application.Instruments
}

func NewCreateUseCase(products domain.Repository, ids application.IDGenerator, tel observability.Observability) *CreateUseCase {
	return &CreateUseCase{products: products, ids: ids, in: application.NewInstruments(catalogService, tel)}
}

func (uc *CreateUseCase) Execute(ctx context.Context, cmd CreateCommand) (_ *domain.Product, err error) {
	ctx, call := uc.in.Begin(ctx, useCaseCreate, "CreateProduct",
		attribute.String("seller.id", cmd.Caller.AccountID),
	)
	call.With(observability.F("seller_id", cmd.Caller.AccountID))
	defer func() { call.End(ctx, err) }()

	if cmd.Caller.Role != identity.RoleSeller {
		return nil, domain.ErrNotSeller
	}
	p, err := domain.NewProduct(uc.ids.NewID(), cmd.Caller.AccountID, cmd.Name, cmd.Cost, cmd.Stock)
	if err != nil {
		return nil, err
	}
	if err := uc.products.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("catalog: insert: %w", err)
	}
	call.With(observability.F("product_id", p.ID))
	return p, nil
}

type UpdateCommand struct {
	Caller    identity.Identity
	ProductID string
	Patch     domain.Patch
}

// UpdateUseCase applies a partial update to a freshly read product and
// stores it with a conditional write, re-reading on a lost race.
type UpdateUseCase struct {
	products domain.Repository
	policy   application.RetryPolicy
	in       application.Instruments
}

func NewUpdateUseCase(products domain.Repository, policy application.RetryPolicy, tel observability.Observability) *UpdateUseCase {
	return &UpdateUseCase{products: products, policy: policy, in: application.NewInstruments(catalogService, tel)}
}

func (uc *UpdateUseCase) Execute(ctx context.Context, cmd UpdateCommand) (_ *domain.Product, err error) {
	ctx, call := uc.in.Begin(ctx, useCaseUpdate, "UpdateProduct",
		attribute.String("product.id", cmd.ProductID),
	)
	call.With(observability.F("product_id", cmd.ProductID))
	defer func() { call.End(ctx, err) }()

	if cmd.Caller.Role != identity.RoleSeller {
		return nil, domain.ErrNotSeller
	}

	var updated *domain.Product
	attempts, err := uc.policy.Do(ctx, func() error {
		p, err := uc.products.Get(ctx, cmd.ProductID)
		if err != nil {
			return err
		}
		if err := p.Authorize(cmd.Caller); err != nil {
			return err
		}
		if err := p.Apply(cmd.Patch); err != nil {
			return err
		}
		if err := uc.products.Update(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	}, domain.ErrStale)
	call.With(observability.F("attempts", attempts))
	if err != nil {
		return nil, err
	}
	return updated, nil
}

type DeleteCommand struct {
	Caller    identity.Identity
	ProductID string
}

type DeleteUseCase struct {
	products domain.Repository
	in       application.Instruments
}

func NewDeleteUseCase(products domain.Repository, tel observability.Observability) *DeleteUseCase {
	return &DeleteUseCase{products: products, in: application.NewInstruments(catalogService, tel)}
}

// Execute removes the product and returns its last state.
func (uc *DeleteUseCase) Execute(ctx context.Context, cmd DeleteCommand) (_ *domain.Product, err error) {
	ctx, call := uc.in.Begin(ctx, useCaseDelete, "DeleteProduct",
		attribute.String("product.id", cmd.ProductID),
	)
	call.With(observability.F("product_id", cmd.ProductID))
	defer func() { call.End(ctx, err) }()

	if cmd.Caller.Role != identity.RoleSeller {
		return nil, domain.ErrNotSeller
	}
	p, err := uc.products.Get(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	if err := p.Authorize(cmd.Caller); err != nil {
		return nil, err
	}
	if err := uc.products.Delete(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

type GetUseCase struct {
	products domain.Repository
	in       application.Instruments
}

func NewGetUseCase(products domain.Repository, tel observability.Observability) *GetUseCase {
	return &GetUseCase{products: products, in: application.NewInstruments(catalogService, tel)}
}

func (uc *GetUseCase) Execute(ctx context.Context, productID string) (_ *domain.Product, err error) {
	ctx, call := uc.in.Begin(ctx, useCaseGet, "GetProduct",
		attribute.String("product.id", productID),
	)
	defer func() { call.End(ctx, err) }()

	return uc.products.Get(ctx, productID)
}

type ListUseCase struct {
	products domain.Repository
	in       application.Instruments
}

func NewListUseCase(products domain.Repository, tel observability.Observability) *ListUseCase {
	return &ListUseCase{products: products, in: application.NewInstruments(catalogService, tel)}
}

func (uc *ListUseCase) Execute(ctx context.Context, _ struct{}) (_ []*domain.Product, err error) {
	ctx, call := uc.in.Begin(ctx, useCaseList, "ListProducts")
	defer func() { call.End(ctx, err) }()

	products, err := uc.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	call.With(observability.F("count", len(products)))
	return products, nil
}

package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"pharmacyos/internal/dto"
	"pharmacyos/internal/infra"
	"pharmacyos/internal/model"
	"pharmacyos/internal/repository"
	"pharmacyos/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SaleOptions are the posting policies loaded from configuration.
type SaleOptions struct {
	// AllowOversell keeps the legacy behavior: a line larger than the
	// available stock allocates what exists and the remainder is dropped.
	AllowOversell bool
	// EnforceCreditLimit rejects credit sales that would push the customer's
	// balance above their credit limit.
	EnforceCreditLimit bool
	Now                func() time.Time
}

func (o SaleOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

type SaleService interface {
	PostSale(ctx context.Context, auth AuthContext, req dto.PostSaleRequest) (*dto.SaleResponse, error)
	GetSale(ctx context.Context, auth AuthContext, id uuid.UUID) (*dto.SaleResponse, error)
	ListSales(ctx context.Context, auth AuthContext, filter dto.SaleFilter) (*dto.SaleListResponse, error)
}

type saleService struct {
	tx        repository.TxRunner
	sales     repository.SaleRepository
	drugs     repository.DrugRepository
	batches   repository.BatchRepository
	customers repository.CustomerRepository
	cache     Cache
	receipts  ReceiptEnqueuer
	opts      SaleOptions
}

func NewSaleService(
	tx repository.TxRunner,
	sales repository.SaleRepository,
	drugs repository.DrugRepository,
	batches repository.BatchRepository,
	customers repository.CustomerRepository,
	cache Cache,
	receipts ReceiptEnqueuer,
	opts SaleOptions,
) SaleService {
	return &saleService{
		tx:        tx,
		sales:     sales,
		drugs:     drugs,
		batches:   batches,
		customers: customers,
		cache:     cache,
		receipts:  receipts,
		opts:      opts,
	}
}

type resolvedLine struct {
	drug      *model.Drug
	quantity  int
	unitPrice decimal.Decimal
	lineTotal decimal.Decimal
}

// ── PostSale ─────────────────────────────────────────────────────────────────
//  1. Validate the request shape (no I/O)
//  2. Resolve customer and drugs, price the basket, check payment (reads only)
//  3. BEGIN TX: lock customer, lock batches per drug, FEFO allocate, write
//     batches, customer balance, order, line items and allocations
//  4. COMMIT
//  5. Invalidate barcode cache, record metrics, enqueue receipt job

func (s *saleService) PostSale(ctx context.Context, auth AuthContext, req dto.PostSaleRequest) (*dto.SaleResponse, error) {
	resp, err := s.postSale(ctx, auth, req)
	if err != nil {
		infra.SalesRejected.WithLabelValues(string(KindOf(err))).Inc()
		return nil, err
	}
	return resp, nil
}

func (s *saleService) postSale(ctx context.Context, auth AuthContext, req dto.PostSaleRequest) (*dto.SaleResponse, error) {
	if err := auth.validate(); err != nil {
		return nil, err
	}
	orgID := auth.OrganizationID

	// 1. Shape checks: nothing is read or written before these pass
	method := model.PaymentMethod(req.PaymentMethod)
	if !method.Valid() {
		return nil, validationf("unknown payment method %q", req.PaymentMethod)
	}
	if len(req.LineItems) == 0 {
		return nil, validationf("a sale needs at least one line item")
	}
	for i, l := range req.LineItems {
		if l.Quantity <= 0 {
			return nil, validationf("line %d: quantity must be greater than zero", i+1)
		}
		if l.UnitPrice != nil && l.UnitPrice.IsNegative() {
			return nil, validationf("line %d: unit_price must not be negative", i+1)
		}
		if l.UnitPrice != nil && !isCents(*l.UnitPrice) {
			return nil, validationf("line %d: unit_price has more than two decimal places", i+1)
		}
	}
	if req.Tax.IsNegative() || req.Discount.IsNegative() {
		return nil, validationf("tax and discount must not be negative")
	}
	if !isCents(req.Tax) || !isCents(req.Discount) {
		return nil, validationf("tax and discount must have at most two decimal places")
	}
	if req.AmountPaid != nil && req.AmountPaid.IsNegative() {
		return nil, validationf("amount_paid must not be negative")
	}
	if req.AmountPaid != nil && !isCents(*req.AmountPaid) {
		return nil, validationf("amount_paid has more than two decimal places")
	}

	// 2a. Customer
	var customer *model.Customer
	if req.CustomerID != nil && *req.CustomerID != "" {
		id, err := uuid.Parse(*req.CustomerID)
		if err != nil {
			return nil, validationf("customer_id is not a valid id")
		}
		c, err := s.customers.FindByID(ctx, orgID, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, notFoundf("customer %s not found", id)
			}
			return nil, storageErr("find customer", err)
		}
		customer = c
	}
	if method == model.PaymentCredit {
		if customer == nil {
			return nil, validationf("credit sales require a customer_id")
		}
		if !customer.AllowCredit {
			return nil, validationf("customer %s is not allowed to buy on credit", customer.FullName())
		}
	}

	// 2b. Drugs and pricing
	lines := make([]resolvedLine, 0, len(req.LineItems))
	subtotal := decimal.Zero
	for i, l := range req.LineItems {
		drugID, err := uuid.Parse(l.DrugID)
		if err != nil {
			return nil, validationf("line %d: drug_id is not a valid id", i+1)
		}
		d, err := s.drugs.FindByID(ctx, orgID, drugID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, notFoundf("drug %s not found", drugID)
			}
			return nil, storageErr("find drug", err)
		}
		price := d.Price
		if l.UnitPrice != nil {
			price = *l.UnitPrice
		}
		lineTotal := price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		lines = append(lines, resolvedLine{drug: d, quantity: l.Quantity, unitPrice: price, lineTotal: lineTotal})
	}

	total := subtotal.Add(req.Tax).Sub(req.Discount)
	if total.IsNegative() {
		return nil, validationf("discount exceeds subtotal plus tax")
	}
	if req.Total != nil && !req.Total.Equal(total) {
		return nil, validationf("total mismatch: sent %s, computed %s", req.Total.StringFixed(2), total.StringFixed(2))
	}

	// 2c. Payment
	amountPaid := total
	if method == model.PaymentCredit {
		amountPaid = decimal.Zero
	}
	if req.AmountPaid != nil {
		amountPaid = *req.AmountPaid
	}
	balance, change := decimal.Zero, decimal.Zero
	if method == model.PaymentCredit {
		if amountPaid.GreaterThan(total) {
			return nil, validationf("amount_paid exceeds total on a credit sale")
		}
		balance = total.Sub(amountPaid)
	} else {
		if amountPaid.LessThan(total) {
			return nil, validationf("amount_paid %s is less than total %s", amountPaid.StringFixed(2), total.StringFixed(2))
		}
		change = amountPaid.Sub(total)
	}

	now := s.opts.now()
	order := &model.SalesOrder{
		ID:             uuid.New(),
		OrganizationID: orgID,
		UserID:         auth.UserID,
		SaleDate:       now,
		Subtotal:       subtotal,
		Tax:            req.Tax,
		Discount:       req.Discount,
		Total:          total,
		PaymentMethod:  method,
		AmountPaid:     amountPaid,
		Balance:        balance,
		ChangeDue:      change,
		Notes:          req.Notes,
	}
	if customer != nil {
		order.CustomerID = &customer.ID
	}

	lots := make(map[uuid.UUID]string)
	shortfalls := make(map[string]int)
	unitsAllocated := 0

	// 3. Unit of work
	err := s.tx.RunInTx(ctx, func(tx *gorm.DB) error {
		if method == model.PaymentCredit {
			c, err := s.customers.FindForUpdateTx(ctx, tx, orgID, customer.ID)
			if err != nil {
				return storageErr("lock customer", err)
			}
			if !c.AllowCredit {
				return validationf("customer %s is not allowed to buy on credit", c.FullName())
			}
			newBalance := c.CurrentBalance.Add(balance)
			if s.opts.EnforceCreditLimit && newBalance.GreaterThan(c.CreditLimit) {
				return validationf("credit limit exceeded for %s: balance would be %s, limit %s",
					c.FullName(), newBalance.StringFixed(2), c.CreditLimit.StringFixed(2))
			}
			if err := s.customers.UpdateBalanceTx(ctx, tx, c.ID, newBalance); err != nil {
				return storageErr("update customer balance", err)
			}
		}

		// Lock every drug's batches up front, in drug id order, so two
		// postings touching the same drugs always queue in the same order.
		drugIDs := make([]uuid.UUID, 0, len(lines))
		seen := make(map[uuid.UUID]bool, len(lines))
		for _, l := range lines {
			if !seen[l.drug.ID] {
				seen[l.drug.ID] = true
				drugIDs = append(drugIDs, l.drug.ID)
			}
		}
		sort.Slice(drugIDs, func(i, j int) bool { return drugIDs[i].String() < drugIDs[j].String() })

		stock := make(map[uuid.UUID][]model.InventoryBatch, len(drugIDs))
		for _, id := range drugIDs {
			batches, err := s.batches.LockActiveByExpiryTx(ctx, tx, id)
			if err != nil {
				return storageErr("lock batches", err)
			}
			stock[id] = batches
		}

		// Allocate in request order. Batches are updated in place, so a drug
		// repeated on several lines sees what the earlier lines took.
		touched := make(map[uuid.UUID]Deduction)
		var touchedOrder []uuid.UUID
		for _, l := range lines {
			alloc := AllocateFEFO(stock[l.drug.ID], l.quantity)
			if alloc.Shortfall > 0 {
				if !s.opts.AllowOversell {
					return insufficientStock(l.drug.Name, l.quantity, alloc.Allocated)
				}
				shortfalls[l.drug.ID.String()] += alloc.Shortfall
				log.Warn().
					Str("drug_id", l.drug.ID.String()).
					Int("requested", l.quantity).
					Int("shortfall", alloc.Shortfall).
					Msg("oversell: line exceeds available stock")
			}

			item := model.SalesLineItem{
				ID:           uuid.New(),
				SalesOrderID: order.ID,
				DrugID:       l.drug.ID,
				BatchID:      alloc.LastBatchID(),
				Quantity:     l.quantity,
				UnitPrice:    l.unitPrice,
				LineTotal:    l.lineTotal,
			}
			for _, d := range alloc.Deductions {
				item.Allocations = append(item.Allocations, model.SalesBatchAllocation{
					ID:         uuid.New(),
					LineItemID: item.ID,
					BatchID:    d.BatchID,
					Quantity:   d.Quantity,
				})
				if _, ok := touched[d.BatchID]; !ok {
					touchedOrder = append(touchedOrder, d.BatchID)
				}
				touched[d.BatchID] = d
				lots[d.BatchID] = d.LotNumber
			}
			order.Items = append(order.Items, item)
			unitsAllocated += alloc.Allocated
		}

		for _, id := range touchedOrder {
			d := touched[id]
			if err := s.batches.UpdateQuantityTx(ctx, tx, id, d.Remaining, d.Status); err != nil {
				return storageErr("update batch", err)
			}
		}

		prefix := fmt.Sprintf("SALE-%s-%s", orgID, now.Format("20060102150405"))
		n, err := s.sales.CountNumbersWithPrefixTx(ctx, tx, orgID, prefix)
		if err != nil {
			return storageErr("sale number", err)
		}
		order.SaleNumber = prefix
		if n > 0 {
			order.SaleNumber = fmt.Sprintf("%s-%d", prefix, n+1)
		}

		if err := s.sales.CreateTx(ctx, tx, order); err != nil {
			if repository.IsUniqueViolation(err, "uni_sales_orders_org_number") {
				return &Error{Kind: KindConcurrencyConflict, Msg: "sale number taken by a concurrent posting, retry", Err: err}
			}
			return storageErr("insert sale", err)
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("post sale", err)
	}

	// 5. After commit
	infra.SalesPosted.WithLabelValues(string(method)).Inc()
	infra.UnitsAllocated.Add(float64(unitsAllocated))
	s.invalidateBarcodes(ctx, orgID, lines)
	s.enqueueReceipt(ctx, order, customer, req.CustomerEmail)

	log.Info().
		Str("sale_number", order.SaleNumber).
		Str("organization_id", orgID.String()).
		Str("payment_method", string(method)).
		Str("total", total.StringFixed(2)).
		Int("lines", len(order.Items)).
		Msg("sale posted")

	for i := range order.Items {
		order.Items[i].Drug = lines[i].drug
	}
	resp := saleToResponse(order, lots)
	if len(shortfalls) > 0 {
		resp.Shortfalls = shortfalls
	}
	return resp, nil
}

func (s *saleService) invalidateBarcodes(ctx context.Context, orgID uuid.UUID, lines []resolvedLine) {
	if s.cache == nil {
		return
	}
	var keys []string
	for _, l := range lines {
		if l.drug.Barcode != nil && *l.drug.Barcode != "" {
			keys = append(keys, barcodeCacheKey(orgID, *l.drug.Barcode))
		}
	}
	s.cache.Delete(ctx, keys...)
}

func (s *saleService) enqueueReceipt(ctx context.Context, order *model.SalesOrder, customer *model.Customer, requestEmail *string) {
	if s.receipts == nil {
		return
	}
	email := requestEmail
	if (email == nil || *email == "") && customer != nil {
		email = customer.Email
	}
	if email == nil || *email == "" {
		return
	}
	payload := worker.ReceiptJobPayload{
		SaleID:         order.ID.String(),
		OrganizationID: order.OrganizationID.String(),
		CustomerEmail:  email,
	}
	if err := s.receipts.EnqueueReceipt(ctx, payload); err != nil {
		log.Warn().Err(err).Str("sale_number", order.SaleNumber).Msg("receipt job not enqueued")
	}
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *saleService) GetSale(ctx context.Context, auth AuthContext, id uuid.UUID) (*dto.SaleResponse, error) {
	if err := auth.validate(); err != nil {
		return nil, err
	}
	order, err := s.sales.FindByID(ctx, auth.OrganizationID, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFoundf("sale %s not found", id)
		}
		return nil, storageErr("find sale", err)
	}
	return saleToResponse(order, nil), nil
}

func (s *saleService) ListSales(ctx context.Context, auth AuthContext, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if err := auth.validate(); err != nil {
		return nil, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}

	f := repository.SaleFilter{Page: filter.Page, Limit: filter.Limit}
	if filter.From != "" {
		from, err := time.Parse("2006-01-02", filter.From)
		if err != nil {
			return nil, validationf("from must be YYYY-MM-DD")
		}
		f.From = &from
	}
	if filter.To != "" {
		to, err := time.Parse("2006-01-02", filter.To)
		if err != nil {
			return nil, validationf("to must be YYYY-MM-DD")
		}
		to = to.AddDate(0, 0, 1)
		f.To = &to
	}
	if filter.CustomerID != "" {
		cid, err := uuid.Parse(filter.CustomerID)
		if err != nil {
			return nil, validationf("customer_id is not a valid id")
		}
		f.CustomerID = &cid
	}

	orders, total, err := s.sales.List(ctx, auth.OrganizationID, f)
	if err != nil {
		return nil, storageErr("list sales", err)
	}
	data := make([]dto.SaleResponse, len(orders))
	for i := range orders {
		data[i] = *saleToResponse(&orders[i], nil)
	}
	return &dto.SaleListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// ── Mapping ──────────────────────────────────────────────────────────────────

func saleToResponse(o *model.SalesOrder, lots map[uuid.UUID]string) *dto.SaleResponse {
	resp := &dto.SaleResponse{
		SaleID:        o.ID.String(),
		SaleNumber:    o.SaleNumber,
		SaleDate:      o.SaleDate.Format(time.RFC3339),
		UserID:        o.UserID.String(),
		PaymentMethod: string(o.PaymentMethod),
		Subtotal:      o.Subtotal,
		Tax:           o.Tax,
		Discount:      o.Discount,
		Total:         o.Total,
		AmountPaid:    o.AmountPaid,
		Balance:       o.Balance,
		ChangeDue:     o.ChangeDue,
		Notes:         o.Notes,
		LineItems:     make([]dto.SaleLineResponse, len(o.Items)),
	}
	if o.CustomerID != nil {
		cid := o.CustomerID.String()
		resp.CustomerID = &cid
	}
	for i, it := range o.Items {
		line := dto.SaleLineResponse{
			ID:          it.ID.String(),
			DrugID:      it.DrugID.String(),
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
			Allocations: make([]dto.BatchAllocationResponse, len(it.Allocations)),
		}
		if it.Drug != nil {
			line.DrugName = it.Drug.Name
		}
		if it.BatchID != nil {
			bid := it.BatchID.String()
			line.BatchID = &bid
		}
		for j, a := range it.Allocations {
			lot := lots[a.BatchID]
			if a.Batch != nil {
				lot = a.Batch.LotNumber
			}
			line.Allocations[j] = dto.BatchAllocationResponse{
				BatchID:   a.BatchID.String(),
				LotNumber: lot,
				Quantity:  a.Quantity,
			}
		}
		resp.LineItems[i] = line
	}
	return resp
}

// isCents reports whether v fits a decimal(12,2) column without rounding.
func isCents(v decimal.Decimal) bool { return v.Equal(v.Round(2)) }

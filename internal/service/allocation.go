package service

import (
	"sort"

	"pharmacyos/internal/model"

	"github.com/google/uuid"
)

// Deduction is the part of one line served by one batch.
type Deduction struct {
	BatchID   uuid.UUID
	LotNumber string
	Quantity  int
	Remaining int               // quantity_on_hand after the deduction
	Status    model.BatchStatus // status after the deduction
}

// Allocation is the outcome of AllocateFEFO for one line.
type Allocation struct {
	Deductions []Deduction
	Allocated  int
	Shortfall  int
}

// LastBatchID returns the batch that served the final units of the line, or
// nil when nothing was allocated.
func (a Allocation) LastBatchID() *uuid.UUID {
	if len(a.Deductions) == 0 {
		return nil
	}
	id := a.Deductions[len(a.Deductions)-1].BatchID
	return &id
}

// AllocateFEFO takes quantity units from batches in ascending expiry order
// (first expired, first out), ties broken by id. Batches that are not active
// or hold no stock are skipped. The batches slice is updated in place: each
// touched batch has its QuantityOnHand decreased and, when it reaches zero,
// its Status set to low_stock. Shortfall is the part of quantity no batch
// could cover.
func AllocateFEFO(batches []model.InventoryBatch, quantity int) Allocation {
	order := make([]int, 0, len(batches))
	for i := range batches {
		if batches[i].Status == model.BatchActive && batches[i].QuantityOnHand > 0 {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		ba, bb := &batches[order[a]], &batches[order[b]]
		if !ba.ExpiryDate.Equal(bb.ExpiryDate) {
			return ba.ExpiryDate.Before(bb.ExpiryDate)
		}
		return ba.ID.String() < bb.ID.String()
	})

	var alloc Allocation
	remaining := quantity
	for _, i := range order {
		if remaining <= 0 {
			break
		}
		b := &batches[i]
		take := min(b.QuantityOnHand, remaining)
		b.QuantityOnHand -= take
		if b.QuantityOnHand == 0 {
			b.Status = model.BatchLowStock
		}
		remaining -= take
		alloc.Allocated += take
		alloc.Deductions = append(alloc.Deductions, Deduction{
			BatchID:   b.ID,
			LotNumber: b.LotNumber,
			Quantity:  take,
			Remaining: b.QuantityOnHand,
			Status:    b.Status,
		})
	}
	if remaining > 0 {
		alloc.Shortfall = remaining
	}
	return alloc
}

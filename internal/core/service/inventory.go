package service

import (
	"slices"
	"sync"

	"github.com/rl1809/material-scanner/internal/core/domain"
)

// Inventory holds committed materials for the lifetime of the process, oldest first.
type Inventory struct {
	mu    sync.Mutex
	items []domain.Material
}

func NewInventory() *Inventory {
	return &Inventory{}
}

// MergeAll appends records after the existing items, keeping their order.
func (inv *Inventory) MergeAll(records []domain.Material) {
	if len(records) == 0 {
		return
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.items = append(inv.items, records...)
}

func (inv *Inventory) Remove(id string) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return removeByID(&inv.items, id)
}

func (inv *Inventory) Clear() {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.items = nil
}

func (inv *Inventory) Items() []domain.Material {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.items == nil {
		return []domain.Material{}
	}
	return slices.Clone(inv.items)
}

func (inv *Inventory) Len() int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return len(inv.items)
}

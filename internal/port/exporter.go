package port

import (
	"io"

	"github.com/rl1809/material-scanner/internal/core/domain"
)

// InventoryExporter renders the inventory as a downloadable document.
type InventoryExporter interface {
	Write(w io.Writer, materials []domain.Material) error
}

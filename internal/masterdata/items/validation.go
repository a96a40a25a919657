package items

import (
	"fmt"
	"strings"

	"github.com/nordwind-erp/nordwind-erp/internal/platform/httpx"
)

func (s *Service) validate(item Item) error {
	if strings.TrimSpace(item.Code) == "" {
		return fmt.Errorf("%w: item code is required", httpx.ErrValidation)
	}
	if strings.TrimSpace(item.Name) == "" {
		return fmt.Errorf("%w: item name is required", httpx.ErrValidation)
	}
	if item.MinStock.Sign() < 0 || item.MaxStock.Sign() < 0 || item.ReorderPoint.Sign() < 0 {
		return fmt.Errorf("%w: stock thresholds must not be negative", httpx.ErrValidation)
	}
	if item.MaxStock.Sign() > 0 && item.MaxStock.LessThan(item.MinStock) {
		return fmt.Errorf("%w: max stock must not be below min stock", httpx.ErrValidation)
	}
	return nil
}

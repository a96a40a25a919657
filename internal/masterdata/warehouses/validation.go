package warehouses

import (
	"fmt"
	"strings"

	"github.com/nordwind-erp/nordwind-erp/internal/platform/httpx"
)

func (s *Service) validate(warehouse Warehouse) error {
	if strings.TrimSpace(warehouse.Code) == "" {
		return fmt.Errorf("%w: warehouse code is required", httpx.ErrValidation)
	}
	if strings.TrimSpace(warehouse.Name) == "" {
		return fmt.Errorf("%w: warehouse name is required", httpx.ErrValidation)
	}
	return nil
}

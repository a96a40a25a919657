package items

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nordwind-erp/nordwind-erp/internal/platform/httpx"
)

func TestValidate(t *testing.T) {
	svc := &Service{}

	valid := Item{
		Code:         "WIDGET",
		Name:         "Widget",
		MinStock:     decimal.NewFromInt(2),
		MaxStock:     decimal.NewFromInt(10),
		ReorderPoint: decimal.NewFromInt(5),
	}
	require.NoError(t, svc.validate(valid))

	missingCode := valid
	missingCode.Code = " "
	require.ErrorIs(t, svc.validate(missingCode), httpx.ErrValidation)

	missingName := valid
	missingName.Name = ""
	require.ErrorIs(t, svc.validate(missingName), httpx.ErrValidation)

	negative := valid
	negative.MinStock = decimal.NewFromInt(-1)
	require.ErrorIs(t, svc.validate(negative), httpx.ErrValidation)

	inverted := valid
	inverted.MaxStock = decimal.NewFromInt(1)
	require.ErrorIs(t, svc.validate(inverted), httpx.ErrValidation)

	unbounded := valid
	unbounded.MaxStock = decimal.Zero
	require.NoError(t, svc.validate(unbounded), "zero max stock means no upper bound")
}

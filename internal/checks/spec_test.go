package checks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckSpec_MinRows(t *testing.T) {
	spec := CheckSpec{Kind: KindRowCountMin, Target: "sales.orders", Params: map[string]any{"min": 100}}
	min, err := spec.MinRows()
	require.NoError(t, err)
	assert.Equal(t, int64(100), min)
}

func TestCheckSpec_MinRowsZeroIsValid(t *testing.T) {
	spec := CheckSpec{Kind: KindRowCountMin, Target: "sales.orders", Params: map[string]any{"min": 0}}
	min, err := spec.MinRows()
	require.NoError(t, err)
	assert.Zero(t, min)
}

func TestCheckSpec_Validate(t *testing.T) {
	tests := []struct {
		name    string
		spec    CheckSpec
		wantErr string
	}{
		{
			name: "valid table_exists",
			spec: CheckSpec{Kind: KindTableExists, Target: "sales.orders"},
		},
		{
			name:    "unknown kind",
			spec:    CheckSpec{Kind: "view_exists", Target: "sales.orders"},
			wantErr: "unknown check kind",
		},
		{
			name:    "empty target",
			spec:    CheckSpec{Kind: KindJobExists},
			wantErr: "empty target",
		},
		{
			name:    "row_count_min without params",
			spec:    CheckSpec{Kind: KindRowCountMin, Target: "sales.orders"},
			wantErr: "params.min is required",
		},
		{
			name:    "negative min",
			spec:    CheckSpec{Kind: KindRowCountMin, Target: "sales.orders", Params: map[string]any{"min": -1}},
			wantErr: "non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCheckSpec_Name(t *testing.T) {
	spec := CheckSpec{Kind: KindRowCountMin, Target: "sales.orders"}
	assert.Equal(t, "row_count_min sales.orders", spec.Name())
}

package reswirl_test

import (
	"testing"

	"github.com/lmmx/reswirl"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := reswirl.Errorf(reswirl.ENOTFOUND, "package %q not found", "test")

	assert.Equal(t, reswirl.ENOTFOUND, reswirl.ErrorCode(err))
	assert.Equal(t, "package \"test\" not found", reswirl.ErrorMessage(err))
}

func TestErrorCode_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, reswirl.ErrorCode(nil))
}

func TestErrorCode_NonApplicationError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, reswirl.EINTERNAL, reswirl.ErrorCode(assert.AnError))
}

func TestErrorMessage_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, reswirl.ErrorMessage(nil))
}

func TestSymbolRecord_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rec      reswirl.SymbolRecord
		wantCode string
	}{
		{
			name: "valid record",
			rec:  reswirl.SymbolRecord{Name: "pkg.Thing", Domain: "py", Role: "class"},
		},
		{
			name:     "missing name",
			rec:      reswirl.SymbolRecord{Domain: "py", Role: "class"},
			wantCode: reswirl.EINVALID,
		},
		{
			name:     "missing role",
			rec:      reswirl.SymbolRecord{Name: "pkg.Thing", Domain: "py"},
			wantCode: reswirl.EINVALID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.rec.Validate()
			if tt.wantCode == "" {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, tt.wantCode, reswirl.ErrorCode(err))
			}
		})
	}
}

func TestNewLocation(t *testing.T) {
	t.Parallel()

	loc := reswirl.NewLocation("polars", "https://docs.pola.rs/api/python/stable/")

	assert.Equal(t, "polars", loc.Package)
	assert.Equal(t, "https://docs.pola.rs/api/python/stable", loc.BaseURL)
	assert.Equal(t, "https://docs.pola.rs/api/python/stable/objects.inv", loc.InventoryURL)
}

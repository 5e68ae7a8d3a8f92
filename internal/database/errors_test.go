package database

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"nil", nil, ErrorClassPermanent},
		{"serialization", &pq.Error{Code: codeSerialization}, ErrorClassSerialization},
		{"deadlock wrapped", fmt.Errorf("create order: %w", &pq.Error{Code: codeDeadlock}), ErrorClassDeadlock},
		{"lock timeout", &pq.Error{Code: codeLockNotAvailable}, ErrorClassTransient},
		{"unique", &pq.Error{Code: codeUniqueViolation}, ErrorClassPermanent},
		{"no rows", sql.ErrNoRows, ErrorClassPermanent},
		{"plain", errors.New("boom"), ErrorClassPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}

func TestConstraintHelpers(t *testing.T) {
	fk := fmt.Errorf("insert: %w", &pq.Error{Code: codeForeignKeyViolation})
	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsUniqueViolation(fk))
	assert.True(t, IsUniqueViolation(&pq.Error{Code: codeUniqueViolation}))
	assert.True(t, IsCheckViolation(&pq.Error{Code: codeCheckViolation}))
	assert.True(t, IsOutOfRange(fmt.Errorf("create order: %w", &pq.Error{Code: codeNumericOutOfRange})))
	assert.False(t, IsOutOfRange(&pq.Error{Code: codeCheckViolation}))
	assert.True(t, IsRetryable(&pq.Error{Code: codeSerialization}))
	assert.False(t, IsRetryable(errors.New("boom")))
}

func TestConstraintName(t *testing.T) {
	err := fmt.Errorf("add: %w", &pq.Error{Code: codeForeignKeyViolation, Constraint: "cart_items_product_id_fkey"})
	assert.Equal(t, "cart_items_product_id_fkey", ConstraintName(err))
	assert.Empty(t, ConstraintName(errors.New("boom")))
}

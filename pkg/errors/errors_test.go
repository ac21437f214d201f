package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NewParseError([]string{"line 2: empty parentheses"}, nil), http.StatusBadRequest},
		{NewValidationError("serving_size_grams must be positive"), http.StatusBadRequest},
		{NewLabelNotFoundError("abc"), http.StatusNotFound},
		{NewNotFoundError("route"), http.StatusNotFound},
		{NewIngredientNotFoundError([]string{"saffron"}), http.StatusUnprocessableEntity},
		{NewAggregationError(stderrors.New("invalid total weight")), http.StatusUnprocessableEntity},
		{NewTooManyRequestsError("FoodData Central", nil), http.StatusTooManyRequests},
		{NewExternalServiceError("FoodData Central", nil), http.StatusBadGateway},
		{NewDatabaseError("save label", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode())
		})
	}
}

func TestIsAndGetCode_SeeThroughWrapping(t *testing.T) {
	appErr := NewIngredientNotFoundError([]string{"saffron", "sumac"})
	wrapped := fmt.Errorf("resolve: %w", appErr)

	assert.True(t, Is(wrapped, CodeIngredientNotFound))
	assert.Equal(t, CodeIngredientNotFound, GetCode(wrapped))
	assert.Same(t, appErr, Wrap(wrapped, "ignored"))
	assert.Equal(t, []string{"saffron", "sumac"}, appErr.Metadata["ingredients"])
	assert.Contains(t, appErr.Details, "saffron, sumac")
}

func TestNewValidationErrors(t *testing.T) {
	err := NewValidationErrors([]ValidationError{
		{Field: "ServingSizeGrams", Value: -5.0, Tag: "gt", Message: "ServingSizeGrams failed on the 'gt' rule"},
		{Field: "YieldFactor", Value: -1.0, Tag: "gte", Message: "YieldFactor failed on the 'gte' rule"},
	})

	assert.Equal(t, CodeValidationFailed, err.Code)
	assert.Equal(t, "ServingSizeGrams failed on the 'gt' rule; YieldFactor failed on the 'gte' rule", err.Details)
	assert.Len(t, err.Metadata["validation_errors"], 2)
}

func TestWrap_PlainErrorBecomesInternal(t *testing.T) {
	cause := stderrors.New("boom")

	err := Wrap(cause, "label generation failed")

	assert.Equal(t, CodeInternal, err.Code)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, Wrap(nil, "unused"))
}

func TestToErrorResponse(t *testing.T) {
	resp := ToErrorResponse(NewLabelNotFoundError("42"), "req-1")

	assert.Equal(t, CodeLabelNotFound, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.Equal(t, "42", resp.Error.Metadata["label_id"])
	assert.NotEmpty(t, resp.Error.Timestamp)
}

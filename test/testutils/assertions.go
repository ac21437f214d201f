// Package testutils provides custom assertions and testing utilities
package testutils

import (
	"encoding/json"
	"math"
	"net/http"
	"strings"
	"testing"

	"github.com/alchemorsel/nutrilabel/internal/domain/nutrition"
	apperrors "github.com/alchemorsel/nutrilabel/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ProfileAssertions provides nutrient profile assertion methods
type ProfileAssertions struct {
	t *testing.T
}

// NewProfileAssertions creates a new profile assertions helper
func NewProfileAssertions(t *testing.T) *ProfileAssertions {
	return &ProfileAssertions{t: t}
}

// SatisfiesInvariants asserts that no part of the profile exceeds its total
func (pa *ProfileAssertions) SatisfiesInvariants(p nutrition.Profile, msgAndArgs ...interface{}) {
	pa.t.Helper()
	assert.Empty(pa.t, nutrition.Violations(p), msgAndArgs...)
}

// NonNegative asserts that every amount is finite and not below zero
func (pa *ProfileAssertions) NonNegative(p nutrition.Profile, msgAndArgs ...interface{}) {
	pa.t.Helper()
	for _, n := range p.Nutrients() {
		v, _ := p.Amount(n)
		assert.False(pa.t, math.IsNaN(v) || math.IsInf(v, 0), "%s should be finite, got %v", n, v)
		assert.GreaterOrEqual(pa.t, v, 0.0, "%s should not be negative", n)
	}
}

// Close asserts that two profiles hold the same nutrients with amounts
// within delta
func (pa *ProfileAssertions) Close(expected, actual nutrition.Profile, delta float64, msgAndArgs ...interface{}) {
	pa.t.Helper()
	require.Equal(pa.t, expected.Nutrients(), actual.Nutrients(), msgAndArgs...)
	for _, n := range expected.Nutrients() {
		assert.InDelta(pa.t, expected.Value(n), actual.Value(n), delta, "%s", n)
	}
}

// HTTPAssertions provides HTTP-specific assertion methods
type HTTPAssertions struct {
	t *testing.T
}

// NewHTTPAssertions creates a new HTTP assertions helper
func NewHTTPAssertions(t *testing.T) *HTTPAssertions {
	return &HTTPAssertions{t: t}
}

// StatusCode asserts the HTTP status code
func (ha *HTTPAssertions) StatusCode(resp *http.Response, expectedCode int, msgAndArgs ...interface{}) {
	require.NotNil(ha.t, resp, "Response should not be nil")
	assert.Equal(ha.t, expectedCode, resp.StatusCode, msgAndArgs...)
}

// JSONResponse asserts that the response is valid JSON and unmarshals it
func (ha *HTTPAssertions) JSONResponse(resp *http.Response, target interface{}, msgAndArgs ...interface{}) {
	require.NotNil(ha.t, resp, "Response should not be nil")

	contentType := resp.Header.Get("Content-Type")
	assert.True(ha.t, strings.Contains(contentType, "application/json"),
		"Response should have JSON content type, got: %s", contentType)

	decoder := json.NewDecoder(resp.Body)
	err := decoder.Decode(target)
	require.NoError(ha.t, err, "Response should be valid JSON")
}

// ErrorResponse asserts that the response carries an error with the given code
func (ha *HTTPAssertions) ErrorResponse(resp *http.Response, expectedCode apperrors.ErrorCode, msgAndArgs ...interface{}) apperrors.ErrorResponse {
	require.NotNil(ha.t, resp, "Response should not be nil")

	var errorResp apperrors.ErrorResponse
	ha.JSONResponse(resp, &errorResp)

	assert.Equal(ha.t, expectedCode, errorResp.Error.Code, msgAndArgs...)
	assert.NotEmpty(ha.t, errorResp.Error.Message, "Error should have a message")
	return errorResp
}

// Header asserts that a header exists with expected value
func (ha *HTTPAssertions) Header(resp *http.Response, headerName, expectedValue string, msgAndArgs ...interface{}) {
	require.NotNil(ha.t, resp, "Response should not be nil")

	actualValue := resp.Header.Get(headerName)
	assert.Equal(ha.t, expectedValue, actualValue, msgAndArgs...)
}

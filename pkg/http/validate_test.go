package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type screenQuery struct {
	Market string `query:"market" default:"kospi" validate:"market"`
	Period string `query:"period" default:"1y" validate:"period"`
	Top    int    `query:"top" default:"20" validate:"gte=1,lte=500"`
}

func bindQuery(t *testing.T, rawQuery string) (*screenQuery, interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/screen?"+rawQuery, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	q := &screenQuery{}
	return q, ReadAndValidateRequest(c, q)
}

func TestReadAndValidateRequestAppliesDefaults(t *testing.T) {
	q, verr := bindQuery(t, "")
	require.Nil(t, verr)
	assert.Equal(t, &screenQuery{Market: "kospi", Period: "1y", Top: 20}, q)

	q, verr = bindQuery(t, "market=sp500&period=6mo&top=5")
	require.Nil(t, verr)
	assert.Equal(t, &screenQuery{Market: "sp500", Period: "6mo", Top: 5}, q)
}

func TestReadAndValidateRequestReportsFields(t *testing.T) {
	_, verr := bindQuery(t, "market=a%2Fb&period=10y&top=501")
	require.NotNil(t, verr)

	errs, ok := verr.([]ValidationError)
	require.True(t, ok)
	byField := map[string]ValidationError{}
	for _, e := range errs {
		byField[e.Field] = e
	}
	require.Len(t, byField, 3)
	assert.Equal(t, "ERR_MARKET", byField["market"].Code)
	assert.Equal(t, "period must be one of: 1mo, 3mo, 6mo, 1y, 2y, 3y, 5y, max", byField["period"].Message)
	assert.Equal(t, "top must be at most 500", byField["top"].Message)
	assert.Equal(t, map[string]interface{}{"max": "500"}, byField["top"].Params)
}

func TestReadAndValidateRequestBindError(t *testing.T) {
	_, verr := bindQuery(t, "top=many")
	errs, ok := verr.([]ValidationError)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_UNKNOWN", errs[0].Code)
}

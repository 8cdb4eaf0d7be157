package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealtrail/internal/models"
	"dealtrail/internal/services"
)

type stubRouteService struct {
	lastOpts *services.RouteOptions
	result   *models.RouteResult
	err      error
}

func (s *stubRouteService) Plan(ctx context.Context, opts *services.RouteOptions) (*models.RouteResult, error) {
	s.lastOpts = opts
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubRouteService) EstimateLeg(ctx context.Context, origin, destination models.Coordinates) (*models.LegEstimate, error) {
	return &models.LegEstimate{}, nil
}

type stubLocationService struct {
	coords *models.Coordinates
	err    error
	calls  int
}

func (s *stubLocationService) GetLocation(ctx context.Context) (*models.Coordinates, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.coords, nil
}

func (s *stubLocationService) LastKnown() *models.Coordinates {
	return s.coords
}

func newPlanRouteRig(planner *stubRouteService, locations *stubLocationService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewRouteHandler(planner, locations)
	router.POST("/routes/plan", handler.PlanRoute)
	return router
}

func planRequest(router *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/routes/plan", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestPlanRouteFallsBackToDevicePosition(t *testing.T) {
	planner := &stubRouteService{result: &models.RouteResult{DealType: models.DealTypeDaily}}
	locations := &stubLocationService{coords: &models.Coordinates{Latitude: 61.2181, Longitude: -149.9003}}
	router := newPlanRouteRig(planner, locations)

	w := planRequest(router, `{"deal_type":"daily"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, planner.lastOpts)
	assert.Equal(t, 61.2181, planner.lastOpts.StartLocation.Latitude)
	assert.Equal(t, -149.9003, planner.lastOpts.StartLocation.Longitude)
	assert.Equal(t, 1, locations.calls)
}

func TestPlanRouteExplicitStartSkipsDevicePosition(t *testing.T) {
	planner := &stubRouteService{result: &models.RouteResult{DealType: models.DealTypeDaily}}
	locations := &stubLocationService{err: errors.New("gps unavailable")}
	router := newPlanRouteRig(planner, locations)

	w := planRequest(router, `{"deal_type":"daily","start_location":{"latitude":61.2181,"longitude":-149.9003}}`)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, planner.lastOpts)
	assert.Equal(t, 61.2181, planner.lastOpts.StartLocation.Latitude)
	assert.Equal(t, 0, locations.calls, "explicit start must not touch the device position")
}

func TestPlanRouteWithoutAnyPosition(t *testing.T) {
	planner := &stubRouteService{result: &models.RouteResult{}}
	locations := &stubLocationService{err: errors.New("no device position has been reported")}
	router := newPlanRouteRig(planner, locations)

	w := planRequest(router, `{"deal_type":"daily"}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "LOCATION_UNAVAILABLE")
	assert.Nil(t, planner.lastOpts, "planning must not run without a start point")
}

func TestPlanRouteRejectsInvalidExplicitStart(t *testing.T) {
	planner := &stubRouteService{result: &models.RouteResult{}}
	locations := &stubLocationService{coords: &models.Coordinates{Latitude: 61.2181, Longitude: -149.9003}}
	router := newPlanRouteRig(planner, locations)

	w := planRequest(router, `{"deal_type":"daily","start_location":{"latitude":120.0,"longitude":0}}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, planner.lastOpts)
}

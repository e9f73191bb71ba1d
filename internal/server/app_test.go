package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/userdirectory/internal/logging"
	"github.com/dmitrijs2005/userdirectory/internal/server/config"
	"github.com/dmitrijs2005/userdirectory/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	hs "github.com/dmitrijs2005/userdirectory/internal/server/http"
)

const (
	seedClientID = "617867e5-1b5f-45f4-8bdc-96a9109c3a27"
	seedAPIKey   = "1AbecedA2Razreda3Klopi4Dni5Sinov6Kolov?"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.EndpointAddrHTTP = "127.0.0.1:0"
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.ShutdownTimeout = time.Second
	c.HealthCheckInterval = time.Hour
	return c
}

func newTestApp(t *testing.T) (*App, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	app, err := newApp(testConfig(), logging.NewNop(), db, repomanager.NewPostgresRepositoryManager())
	require.NoError(t, err)
	return app, mock
}

func TestApp_ServesSeededClientThroughDatabase(t *testing.T) {
	app, mock := newTestApp(t)
	defer app.db.Close()

	mock.ExpectQuery(`FROM clients\s+WHERE api_key = \$1`).
		WithArgs(seedAPIKey).
		WillReturnRows(sqlmock.NewRows([]string{"id", "api_key", "client_name"}).
			AddRow(seedClientID, seedAPIKey, "Test Client"))
	mock.ExpectQuery(`FROM users\s+WHERE client_id = \$1`).
		WithArgs(seedClientID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "username", "full_name", "email", "mobile_phone_number", "language", "culture", "password_hash"}).
			AddRow("0f8fad5b-d9cb-469f-a165-70867728950e", seedClientID, "jdoe", nil, nil, nil, "English", "en-US", "digest"))

	router := hs.NewRouter(app.routerConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/User", nil)
	req.Header.Set("X-Api-Key", seedAPIKey)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var users []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &users))
	require.Len(t, users, 1)
	assert.Equal(t, "jdoe", users[0]["userName"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApp_UnknownKeyIsRejected(t *testing.T) {
	app, mock := newTestApp(t)
	defer app.db.Close()

	mock.ExpectQuery(`FROM clients\s+WHERE api_key = \$1`).
		WithArgs("Wrong!").
		WillReturnRows(sqlmock.NewRows([]string{"id", "api_key", "client_name"}))

	router := hs.NewRouter(app.routerConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/User", nil)
	req.Header.Set("X-Api-Key", "Wrong!")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	app, mock := newTestApp(t)
	mock.ExpectClose()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop")
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApp_RunFailsOnBadAddress(t *testing.T) {
	app, mock := newTestApp(t)
	mock.ExpectClose()
	app.config.EndpointAddrHTTP = "127.0.0.1:99999"

	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestRegisterGRPCServices_AddsReflection(t *testing.T) {
	srv := grpc.NewServer()
	registerGRPCServices(srv)

	info := srv.GetServiceInfo()
	assert.Contains(t, info, "grpc.reflection.v1.ServerReflection")
}

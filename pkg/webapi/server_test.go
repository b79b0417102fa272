package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/NotCoffee418/home_energy_dashboard/pkg/accountdb"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/accounts"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/metrics"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/notify"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/readingdb"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/report"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/session"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/timebucket"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/types"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/usage"
)

var testNow = time.Date(2024, 3, 15, 10, 45, 0, 0, time.UTC)

type testEnv struct {
	srv      *httptest.Server
	readings *readingdb.DB
	accounts *accountdb.DB
	user     types.User
	token    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	readings, err := readingdb.Open(filepath.Join(dir, "readings.db"), readingdb.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { readings.Close() })

	accountStore, err := accountdb.Open(filepath.Join(dir, "accounts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { accountStore.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := zap.NewNop()
	usageSvc := usage.NewService(readings, accountStore, logger, usage.Options{
		MaxRangeDays: 31,
		Now:          func() time.Time { return testNow },
	})
	accountSvc := accounts.NewService(accountStore, readings, session.NewStore(client, time.Hour),
		notify.LogDispatcher{Logger: logger}, logger, accounts.Options{BcryptCost: bcrypt.MinCost})

	server := NewServer(usageSvc, accountSvc, metrics.New(), logger, Options{RequestTimeout: 5 * time.Second},
		map[string]Pinger{"readings": readings, "accounts": accountStore})
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)
	user := types.User{Name: "Sam", Email: "sam@example.com", PasswordHash: string(hash), Verified: true}
	require.NoError(t, accountStore.CreateUser(context.Background(), &user))

	env := &testEnv{srv: srv, readings: readings, accounts: accountStore, user: user}
	env.token = env.login(t)
	return env
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	resp := e.do(t, "POST", "/api/auth/login", map[string]string{"email": "sam@example.com", "password": "hunter22"}, false)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body loginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Token)

	var cookieSet bool
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookie && c.Value == body.Token {
			cookieSet = true
		}
	}
	assert.True(t, cookieSet)
	return body.Token
}

func (e *testEnv) do(t *testing.T, method, path string, body any, authed bool) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) getJSON(t *testing.T, path string, wantStatus int, out any) {
	t.Helper()
	resp := e.do(t, "GET", path, nil, true)
	defer resp.Body.Close()
	require.Equal(t, wantStatus, resp.StatusCode, path)
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
}

func (e *testEnv) seed(t *testing.T, device string, ts time.Time, kwh float64) {
	t.Helper()
	require.NoError(t, e.readings.InsertReading(context.Background(), types.Reading{
		DeviceID: types.DeviceID(device), Timestamp: ts, EnergyKWh: kwh,
	}))
}

func at(day string, hour, minute int) time.Time {
	d, _ := timebucket.ParseDate(day)
	return d.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func TestRequiresSession(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/api/usage/stats", "/api/devices", "/api/analytics/daily-usage", "/api/auth/profile"} {
		resp := env.do(t, "GET", path, nil, false)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}

	req, _ := http.NewRequest("GET", env.srv.URL+"/api/usage/stats", nil)
	req.Header.Set("Authorization", "Bearer not-a-session")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, "POST", "/api/auth/login", map[string]string{"email": "sam@example.com", "password": "nope"}, false)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.Error)
}

func TestStatsRoundedAtBoundary(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "fridge", at("2024-03-15", 1, 0), 12.345)
	env.seed(t, "fridge", at("2024-03-15", 22, 0), 1)

	var stats statsResponse
	env.getJSON(t, "/api/usage/stats", http.StatusOK, &stats)
	assert.Equal(t, 13.35, stats.Today)
	assert.Equal(t, 12.35, stats.TodaySoFar)
	// week and month stop at the current instant
	assert.Equal(t, 12.35, stats.Week)
	assert.Equal(t, 12.35, stats.Month)
}

func TestHourlyAndDaily(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "tv", at("2024-03-10", 20, 0), 0.5)
	env.seed(t, "tv", at("2024-03-10", 20, 30), 0.25)

	var hours []hourPoint
	env.getJSON(t, "/api/usage/hourly", http.StatusOK, &hours)
	require.Len(t, hours, 24)
	assert.Equal(t, hourPoint{Hour: 20, Usage: 0.75}, hours[20])

	var days []datePoint
	env.getJSON(t, "/api/usage/daily?month=3&year=2024", http.StatusOK, &days)
	require.Len(t, days, 31)
	assert.Equal(t, datePoint{Date: "2024-03-10", Usage: 0.75}, days[9])

	env.getJSON(t, "/api/usage/hourly?date=2024-3-10", http.StatusBadRequest, nil)
}

func TestDevicesEndpoint(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	device := types.Device{UserID: env.user.ID, Name: "Living Room AC", Type: types.DeviceAC, Wattage: 1500, Location: types.LocationLivingRoom}
	require.NoError(t, env.accounts.CreateDevice(ctx, &device))

	env.seed(t, string(device.ID), at("2024-03-15", 0, 0), 1)
	env.seed(t, string(device.ID), at("2024-03-15", 18, 0), 2)

	var out []deviceDay
	env.getJSON(t, "/api/usage/devices?date=2024-03-15", http.StatusOK, &out)
	require.Len(t, out, 1)
	assert.Equal(t, "Living Room AC", out[0].Name)
	assert.Equal(t, 3.0, out[0].DailyUsage)
	assert.Equal(t, 1.0, out[0].CurrentUsage)
	assert.Len(t, out[0].Slots, timebucket.SlotsPerDay)

	env.getJSON(t, "/api/usage/devices", http.StatusBadRequest, nil)
}

func TestAnalyticsEnvelope(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "a", at("2024-03-01", 3, 0), 5)
	env.seed(t, "a", at("2024-03-02", 3, 0), 3)

	var daily struct {
		Success bool        `json:"success"`
		Data    []datePoint `json:"data"`
	}
	env.getJSON(t, "/api/analytics/daily-usage?startDate=2024-03-01&endDate=2024-03-03", http.StatusOK, &daily)
	assert.True(t, daily.Success)
	assert.Equal(t, []datePoint{{"2024-03-01", 5}, {"2024-03-02", 3}, {"2024-03-03", 0}}, daily.Data)

	var devices struct {
		Success bool          `json:"success"`
		Data    []deviceUsage `json:"data"`
	}
	env.getJSON(t, "/api/analytics/device-usage?startDate=2024-03-01&endDate=2024-03-03", http.StatusOK, &devices)
	require.Len(t, devices.Data, 1)
	assert.Equal(t, 8.0, devices.Data[0].Usage)

	env.getJSON(t, "/api/analytics/daily-usage?startDate=2024-03-05&endDate=2024-03-01", http.StatusBadRequest, nil)
	env.getJSON(t, "/api/analytics/daily-usage?startDate=2024-01-01&endDate=2024-03-01", http.StatusBadRequest, nil)
}

func TestRollupEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "a", at("2024-03-04", 3, 0), 2)

	var points []keyPoint
	env.getJSON(t, "/api/usage/rollup?resolution=week&startDate=2024-03-01&endDate=2024-03-10", http.StatusOK, &points)
	assert.Equal(t, []keyPoint{{"2024-W09", 0}, {"2024-W10", 2}}, points)

	env.getJSON(t, "/api/usage/rollup?resolution=year&startDate=2024-03-01&endDate=2024-03-10", http.StatusBadRequest, nil)
}

func TestExportWorkbook(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "a", at("2024-03-01", 3, 0), 1.005)

	resp := env.do(t, "GET", "/api/analytics/export?startDate=2024-03-01&endDate=2024-03-02", nil, true)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, report.ContentType, resp.Header.Get("Content-Type"))

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(report.DailySheet)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestDeviceCRUDAndManualUsage(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "POST", "/api/devices", map[string]any{"name": "Space Heater", "type": "Heater", "wattage": 1200, "location": "Bedroom"}, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var device types.Device
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&device))
	resp.Body.Close()
	assert.Equal(t, types.LocationBedroom, device.Location)

	resp = env.do(t, "POST", "/api/devices", map[string]any{"name": "Toaster", "type": "Toaster", "wattage": 800}, true)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, "POST", "/api/energy/usage", map[string]any{"deviceId": device.ID, "hoursUsed": 2, "date": "2024-03-14"}, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var rec readingResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	resp.Body.Close()
	assert.Equal(t, 2.4, rec.Usage)

	var stats energyStatsResponse
	env.getJSON(t, "/api/energy/stats?period=week", http.StatusOK, &stats)
	assert.Equal(t, 2.4, stats.TotalUsage)
	assert.Equal(t, 0.29, stats.TotalCost)
	require.Len(t, stats.Devices, 1)
	assert.Equal(t, "Space Heater", stats.Devices[0].Device)
	assert.Equal(t, 0.29, stats.Devices[0].Cost)

	var recs recommendationsResponse
	env.getJSON(t, "/api/recommendations", http.StatusOK, &recs)
	require.Len(t, recs.Recommendations, 1)
	assert.Contains(t, recs.Recommendations[0], "Space Heater accounts for 100%")

	resp = env.do(t, "POST", "/api/energy/usage", map[string]any{"deviceId": "missing", "hoursUsed": 2}, true)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, "DELETE", "/api/devices/"+string(device.ID), nil, true)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	n, err := env.readings.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	resp = env.do(t, "DELETE", "/api/devices/"+string(device.ID), nil, true)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLogoutEndsSession(t *testing.T) {
	env := newTestEnv(t)

	var profile struct {
		Success bool       `json:"success"`
		User    types.User `json:"user"`
	}
	env.getJSON(t, "/api/auth/profile", http.StatusOK, &profile)
	assert.Equal(t, "sam@example.com", profile.User.Email)

	resp := env.do(t, "POST", "/api/auth/logout", nil, true)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env.getJSON(t, "/api/auth/profile", http.StatusUnauthorized, nil)
}

func TestSignupFlowValidation(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "POST", "/api/auth/signup", map[string]string{"email": "new@example.com"}, false)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, "POST", "/api/auth/signup", map[string]string{"name": "New", "email": "new@example.com", "password": "pw"}, false)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, "POST", "/api/auth/verify-otp", map[string]string{"email": "new@example.com", "otp": "not-the-code"}, false)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, "POST", "/api/auth/resend-otp", map[string]string{"email": "ghost@example.com"}, false)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	var health struct {
		Healthy bool              `json:"healthy"`
		Checks  map[string]string `json:"checks"`
	}
	resp := env.do(t, "GET", "/api/health", nil, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.True(t, health.Healthy)
	assert.Equal(t, "ok", health.Checks["readings"])

	resp = env.do(t, "GET", "/metrics", nil, false)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(timebucket.ErrInvalidDateFormat))
	assert.Equal(t, http.StatusBadRequest, statusFor(timebucket.ErrInvalidRange))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(usage.ErrTimeout))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(usage.ErrUpstreamUnavailable))
	assert.Equal(t, http.StatusNotFound, statusFor(usage.ErrDeviceNotFound))
	assert.Equal(t, http.StatusUnauthorized, statusFor(accounts.ErrUnauthenticated))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}

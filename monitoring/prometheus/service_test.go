package prometheus

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/prysmaticlabs/slashprotect/runtime"
	"github.com/prysmaticlabs/slashprotect/testing/assert"
	"github.com/prysmaticlabs/slashprotect/testing/require"
	logTest "github.com/sirupsen/logrus/hooks/test"
)

type mockService struct {
	status error
}

func (*mockService) Start() {}

func (*mockService) Stop() error {
	return nil
}

func (m *mockService) Status() error {
	return m.status
}

func startService(t *testing.T, registry *runtime.ServiceRegistry) string {
	s := NewService("127.0.0.1:0", registry)
	s.Start()
	require.NotNil(t, s.Addr(), "Service did not bind")
	t.Cleanup(func() {
		require.NoError(t, s.Stop())
	})
	return "http://" + s.Addr().String()
}

func get(t *testing.T, url, accept string) (int, string) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, resp.Body.Close())
	}()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestLifecycle(t *testing.T) {
	hook := logTest.NewGlobal()
	s := NewService("127.0.0.1:0", nil)
	s.Start()
	require.LogsContain(t, hook, "Starting service")
	require.NoError(t, s.Status())

	require.NoError(t, s.Stop())
	require.LogsContain(t, hook, "Stopping service")
}

func TestStart_AddressInUse(t *testing.T) {
	first := NewService("127.0.0.1:0", nil)
	first.Start()
	defer func() { require.NoError(t, first.Stop()) }()

	second := NewService(first.Addr().String(), nil)
	second.Start()
	assert.NotNil(t, second.Status(), "Expected a failure status")
}

func TestHealthz(t *testing.T) {
	registry := runtime.NewServiceRegistry()
	m := &mockService{}
	require.NoError(t, registry.RegisterService(m))
	url := startService(t, registry) + "/healthz"

	code, body := get(t, url, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "*prometheus.mockService: OK\n", body)

	code, body = get(t, url, "application/json")
	assert.Equal(t, http.StatusOK, code)
	var resp struct {
		Err  string            `json:"error"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, "", resp.Err)
	assert.DeepEqual(t, map[string]string{"*prometheus.mockService": "OK"}, resp.Data)

	m.status = errors.New("storage unavailable")
	code, body = get(t, url, "text/plain")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "*prometheus.mockService: ERROR storage unavailable\n", body)
}

func TestLogrusCollector(t *testing.T) {
	url := startService(t, nil) + "/metrics"
	hook := NewLogrusCollector()
	logger, _ := logTest.NewNullLogger()
	logger.AddHook(hook)

	logger.WithField("prefix", "collector-test").Warn("Warning message!")
	logger.WithField("prefix", "collector-test").Warn("Warning message!")
	logger.WithField("prefix", "collector-test").Error("Error message!!")
	logger.WithField("prefix", "collector-test").Debug("Not counted")

	_, body := get(t, url, "")
	assert.Equal(t, 2, metricValue(t, body, "collector-test", "warning"))
	assert.Equal(t, 1, metricValue(t, body, "collector-test", "error"))
	assert.Equal(t, false, strings.Contains(body, `level="debug",prefix="collector-test"`))
}

func metricValue(t *testing.T, body, prefix, level string) int {
	// Expect line with this pattern:
	//   log_entries_total{level="error",prefix="empty"} 1
	pattern := fmt.Sprintf("log_entries_total{level=%q,prefix=%q} ", level, prefix)
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, pattern) {
			var count int
			_, err := fmt.Sscanf(strings.TrimPrefix(line, pattern), "%d", &count)
			require.NoError(t, err)
			return count
		}
	}
	t.Errorf("Pattern %q not found", pattern)
	return 0
}

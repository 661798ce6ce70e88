package business

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newBindContext(body io.Reader, contentLength int64) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/payroll", body)
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = contentLength
	c.Request = req
	return c
}

func TestBindOptionalJSONReadsChunkedBody(t *testing.T) {
	c := newBindContext(strings.NewReader(`{"worker_uids":["worker-0001"],"period_label":"May 2026"}`), -1)

	var req PayrollRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if len(req.WorkerUIDs) != 1 || req.WorkerUIDs[0] != "worker-0001" || req.PeriodLabel != "May 2026" {
		t.Fatalf("worker selection lost: %+v", req)
	}
}

func TestBindOptionalJSONAcceptsEmptyBody(t *testing.T) {
	for name, body := range map[string]io.Reader{
		"no body":    nil,
		"empty body": strings.NewReader(""),
	} {
		c := newBindContext(body, -1)
		if body == nil {
			c.Request.Body = http.NoBody
		}
		var req PayrollRequest
		if err := bindOptionalJSON(c, &req); err != nil {
			t.Fatalf("%s: bind failed: %v", name, err)
		}
		if len(req.WorkerUIDs) != 0 {
			t.Fatalf("%s: unexpected selection %+v", name, req.WorkerUIDs)
		}
	}
}

func TestBindOptionalJSONRejectsMalformedBody(t *testing.T) {
	c := newBindContext(strings.NewReader(`{"worker_uids":`), -1)
	var req PayrollRequest
	if err := bindOptionalJSON(c, &req); err == nil {
		t.Fatalf("malformed body should fail")
	}
}

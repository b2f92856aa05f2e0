package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goodboy-intake/internal/catalog"
	"goodboy-intake/internal/common/config"
	"goodboy-intake/internal/common/logger"
	"goodboy-intake/internal/form"
	"goodboy-intake/internal/monday"
	"goodboy-intake/internal/submission"
)

const testCatalogJSON = `{
  "products": [
    {"id": "classic-polo", "name": "Classic Polo", "category": "Men's Apparel", "price": "$45"}
  ],
  "projectTypes": [
    {"id": "corporate", "title": "Corporate Apparel"}
  ],
  "sizes": ["M", "L"],
  "colors": [{"name": "Navy", "hex": "#1f2a44"}]
}`

// mondayStub answers every GraphQL call successfully and records the
// queries it saw.
type mondayStub struct {
	queries []string
	fail    bool
}

func (m *mondayStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.fail {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"errors": []map[string]string{{"message": "Board not found"}},
			})
			return
		}
		contentType := r.Header.Get("Content-Type")
		if strings.HasPrefix(contentType, "multipart/") {
			_ = r.ParseMultipartForm(1 << 20)
			m.queries = append(m.queries, r.FormValue("query"))
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]interface{}{
					"add_file_to_item": map[string]string{"id": "333", "url": "https://files.monday.com/333"},
				},
			})
			return
		}
		var req struct {
			Query string `json:"query"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		m.queries = append(m.queries, req.Query)

		switch {
		case strings.Contains(req.Query, "create_item"):
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]interface{}{
					"create_item": map[string]string{"id": "111", "name": "Ada - Corporate Apparel", "url": "https://example.monday.com/pulses/111"},
				},
			})
		case strings.Contains(req.Query, "create_update"):
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]interface{}{"create_update": map[string]string{"id": "222"}},
			})
		default:
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": map[string]interface{}{}})
		}
	}
}

func newTestServer(t *testing.T, stub *mondayStub) *httptest.Server {
	t.Helper()

	mondaySrv := httptest.NewServer(stub.handler())
	t.Cleanup(mondaySrv.Close)

	cat, err := catalog.Parse([]byte(testCatalogJSON))
	require.NoError(t, err)

	cfg := config.Config{}
	cfg.App.Name = "goodboy-intake"
	cfg.Uploads = config.UploadsConfig{
		MaxFileBytes: 15 << 20,
		MaxFiles:     10,
		AllowedTypes: []string{"image/png", "application/pdf"},
	}
	cfg.Monday = config.MondayConfig{
		APIURL:     mondaySrv.URL,
		APIToken:   "test-token",
		BoardID:    "12345",
		APIVersion: "2023-10",
		Timeout:    5000,
	}

	log := logger.NewTestLogger(t)
	client := monday.New(cfg.Monday, log)
	submitter := submission.New(client, cat, log)
	srv := New(cfg, cat, form.NewMemoryStorage(), submitter, nil, log)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// client with a cookie jar so the draft cookie persists across calls
func testClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func putStep(t *testing.T, c *http.Client, base, step string, fields url.Values, advance bool) *http.Response {
	t.Helper()
	u := base + "/api/steps/" + step
	if advance {
		u += "?advance=true"
	}
	req, err := http.NewRequest(http.MethodPut, u, strings.NewReader(fields.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.Do(req)
	require.NoError(t, err)
	return resp
}

func fillCompleteDraft(t *testing.T, c *http.Client, base string) {
	t.Helper()
	resp := putStep(t, c, base, "contact", url.Values{
		"email":        {"ada@example.com"},
		"contact-name": {"Ada"},
	}, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = putStep(t, c, base, "project-type", url.Values{"project-type": {"corporate"}}, false)
	resp.Body.Close()

	resp = putStep(t, c, base, "products", url.Values{"product": {"classic-polo"}}, false)
	resp.Body.Close()

	resp = putStep(t, c, base, "details", url.Values{
		"quantity-classic-polo": {"25"},
		"sizes-classic-polo":    {"M", "L"},
		"colors-classic-polo":   {"Navy"},
	}, false)
	resp.Body.Close()
}

func TestDraftCookieIssued(t *testing.T) {
	ts := newTestServer(t, &mondayStub{})
	resp, err := http.Get(ts.URL + "/api/draft")
	require.NoError(t, err)
	defer resp.Body.Close()

	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == "draft_id" && c.Value != "" {
			found = true
		}
	}
	assert.True(t, found, "first touch mints a draft cookie")
}

func TestStepSaveAndDraftReadBack(t *testing.T) {
	ts := newTestServer(t, &mondayStub{})
	c := testClient(t)

	resp := putStep(t, c, ts.URL, "contact", url.Values{
		"email":        {"ada@example.com"},
		"contact-name": {"Ada"},
	}, false)
	var saved struct {
		Completion int `json:"completion"`
	}
	decode(t, resp, &saved)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 13, saved.Completion, "1 of 8 checkpoints")

	dr, err := c.Get(ts.URL + "/api/draft")
	require.NoError(t, err)
	var draft struct {
		Record     form.Record `json:"record"`
		IsComplete bool        `json:"isComplete"`
	}
	decode(t, dr, &draft)
	assert.Equal(t, "ada@example.com", draft.Record.Contact.Email)
	assert.False(t, draft.IsComplete)
}

func TestAdvanceGateRejectsInvalidStep(t *testing.T) {
	ts := newTestServer(t, &mondayStub{})
	c := testClient(t)

	resp := putStep(t, c, ts.URL, "contact", url.Values{
		"email": {"not-an-email"}, "contact-name": {"Ada"},
	}, true)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body struct {
		Valid   bool   `json:"valid"`
		Message string `json:"message"`
	}
	decode(t, resp, &body)
	assert.False(t, body.Valid)
	assert.Equal(t, "Please enter a valid email address", body.Message)
}

func TestAdvanceGateReturnsNextStep(t *testing.T) {
	ts := newTestServer(t, &mondayStub{})
	c := testClient(t)

	resp := putStep(t, c, ts.URL, "project-type", url.Values{"project-type": {"corporate"}}, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Valid bool   `json:"valid"`
		Next  string `json:"next"`
	}
	decode(t, resp, &body)
	assert.True(t, body.Valid)
	assert.Equal(t, "products", body.Next)
}

func TestUnknownStepIs404(t *testing.T) {
	ts := newTestServer(t, &mondayStub{})
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/steps/bogus", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func uploadFiles(t *testing.T, c *http.Client, base string, names ...string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, name := range names {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="files"; filename="`+name+`"`)
		h.Set("Content-Type", "image/png")
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, _ = part.Write([]byte{0x89, 0x50, 0x4e, 0x47})
	}
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, base+"/api/files", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := c.Do(req)
	require.NoError(t, err)
	return resp
}

func TestFileUploadPreviewAndDelete(t *testing.T) {
	ts := newTestServer(t, &mondayStub{})
	c := testClient(t)

	resp := uploadFiles(t, c, ts.URL, "logo.png")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Accepted []form.FileMeta `json:"accepted"`
	}
	decode(t, resp, &body)
	require.Len(t, body.Accepted, 1)
	id := body.Accepted[0].ID

	pv, err := c.Get(ts.URL + "/api/files/" + id + "/preview")
	require.NoError(t, err)
	data, _ := io.ReadAll(pv.Body)
	pv.Body.Close()
	assert.Equal(t, http.StatusOK, pv.StatusCode)
	assert.Equal(t, "image/png", pv.Header.Get("Content-Type"))
	assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, data)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/files/"+id, nil)
	dr, err := c.Do(req)
	require.NoError(t, err)
	dr.Body.Close()
	assert.Equal(t, http.StatusOK, dr.StatusCode)

	pv2, err := c.Get(ts.URL + "/api/files/" + id + "/preview")
	require.NoError(t, err)
	pv2.Body.Close()
	assert.Equal(t, http.StatusNotFound, pv2.StatusCode)
}

func TestFileUploadRejectionsReported(t *testing.T) {
	ts := newTestServer(t, &mondayStub{})
	c := testClient(t)

	r1 := uploadFiles(t, c, ts.URL, "logo.png")
	r1.Body.Close()
	r2 := uploadFiles(t, c, ts.URL, "logo.png")

	var body struct {
		Accepted []form.FileMeta `json:"accepted"`
		Rejected []struct {
			Name   string `json:"name"`
			Reason string `json:"reason"`
		} `json:"rejected"`
	}
	decode(t, r2, &body)
	assert.Empty(t, body.Accepted)
	require.Len(t, body.Rejected, 1)
	assert.Equal(t, "A file with this name has already been uploaded", body.Rejected[0].Reason)
}

func TestSubmitRequiresCompleteDraft(t *testing.T) {
	ts := newTestServer(t, &mondayStub{})
	c := testClient(t)

	resp, err := c.Post(ts.URL+"/api/submit", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestSubmitHappyPath(t *testing.T) {
	stub := &mondayStub{}
	ts := newTestServer(t, stub)
	c := testClient(t)

	fillCompleteDraft(t, c, ts.URL)

	resp, err := c.Post(ts.URL+"/api/submit", "application/json", nil)
	require.NoError(t, err)
	var result struct {
		Success bool   `json:"success"`
		ItemID  string `json:"itemId"`
	}
	decode(t, resp, &result)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, result.Success)
	assert.Equal(t, "111", result.ItemID)

	// the draft is now stamped submitted
	dr, err := c.Get(ts.URL + "/api/draft")
	require.NoError(t, err)
	var draft struct {
		Record form.Record `json:"record"`
	}
	decode(t, dr, &draft)
	assert.Equal(t, form.StatusSubmitted, draft.Record.Status)
	assert.Equal(t, "111", draft.Record.MondayItemID)
	assert.NotEmpty(t, draft.Record.SubmissionID)

	// item creation came before the narrative
	require.Len(t, stub.queries, 2)
	assert.Contains(t, stub.queries[0], "create_item")
	assert.Contains(t, stub.queries[1], "create_update")
}

func TestSubmitTwiceIsRefused(t *testing.T) {
	ts := newTestServer(t, &mondayStub{})
	c := testClient(t)

	fillCompleteDraft(t, c, ts.URL)

	first, err := c.Post(ts.URL+"/api/submit", "application/json", nil)
	require.NoError(t, err)
	first.Body.Close()
	require.Equal(t, http.StatusOK, first.StatusCode)

	second, err := c.Post(ts.URL+"/api/submit", "application/json", nil)
	require.NoError(t, err)
	defer second.Body.Close()
	assert.Equal(t, http.StatusConflict, second.StatusCode)
}

func TestSubmitRemoteFailure(t *testing.T) {
	stub := &mondayStub{fail: true}
	ts := newTestServer(t, stub)
	c := testClient(t)

	fillCompleteDraft(t, c, ts.URL)

	resp, err := c.Post(ts.URL+"/api/submit", "application/json", nil)
	require.NoError(t, err)
	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	decode(t, resp, &result)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "Board not found")

	// the draft stays submittable for a retry
	dr, err := c.Get(ts.URL + "/api/draft")
	require.NoError(t, err)
	var draft struct {
		Record form.Record `json:"record"`
	}
	decode(t, dr, &draft)
	assert.Equal(t, form.StatusDraft, draft.Record.Status)
}

func TestClearDraft(t *testing.T) {
	ts := newTestServer(t, &mondayStub{})
	c := testClient(t)

	fillCompleteDraft(t, c, ts.URL)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/draft", nil)
	resp, err := c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	dr, err := c.Get(ts.URL + "/api/draft")
	require.NoError(t, err)
	var draft struct {
		Record form.Record `json:"record"`
	}
	decode(t, dr, &draft)
	assert.Empty(t, draft.Record.Contact.Email)
	assert.Empty(t, draft.Record.SelectedProducts)
}

func TestCatalogEndpoint(t *testing.T) {
	ts := newTestServer(t, &mondayStub{})
	resp, err := http.Get(ts.URL + "/api/catalog")
	require.NoError(t, err)
	var cat struct {
		Products []struct {
			ID string `json:"id"`
		} `json:"products"`
	}
	decode(t, resp, &cat)
	require.Len(t, cat.Products, 1)
	assert.Equal(t, "classic-polo", cat.Products[0].ID)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, &mondayStub{})
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "goodboy-intake", body["service"])
}

// internal/handlers/helpers_test.go
package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go_5_review_keep/internal/model"
)

// doRequest はルーターに直接リクエストを流し、ステータスとボディを返します。
// Bodyに文字列を渡すと生のペイロードとして送れます（壊れたJSONのテスト用）
func doRequest(t *testing.T, app *testApp, method, path string, body interface{}) (int, []byte) {
	t.Helper()
	return doRequestWithToken(t, app, method, path, body, "")
}

// doAdminRequest は管理トークンを取得してから管理APIへリクエストを流します
func doAdminRequest(t *testing.T, app *testApp, method, path string, body interface{}) (int, []byte) {
	t.Helper()
	return doRequestWithToken(t, app, method, path, body, loginAdmin(t, app))
}

func doRequestWithToken(t *testing.T, app *testApp, method, path string, body interface{}, token string) (int, []byte) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		if raw, ok := body.(string); ok {
			reqBody = strings.NewReader(raw)
		} else {
			payload, err := json.Marshal(body)
			require.NoError(t, err, "Failed to marshal request body")
			reqBody = bytes.NewReader(payload)
		}
	}

	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	respBody, err := io.ReadAll(rec.Body)
	require.NoError(t, err, "Failed to read response body")
	return rec.Code, respBody
}

// loginAdmin は管理ログインAPIでアクセストークンを取得します
func loginAdmin(t *testing.T, app *testApp) string {
	t.Helper()
	code, body := doRequest(t, app, http.MethodPost, "/api/admin/login",
		map[string]string{"password": testAdminPassword})
	require.Equal(t, http.StatusOK, code, "admin login failed: %s", string(body))

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

// decodeAs はレスポンスボディを目的の型にデコードします
func decodeAs[T any](t *testing.T, body []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(body, &out), "Failed to decode response: %s", string(body))
	return out
}

// verifyErrorCode はエラーレスポンスのエラーコードを検証します
func verifyErrorCode(t *testing.T, body []byte, wantCode string) {
	t.Helper()
	errResp := decodeAs[model.APIErrorResponse](t, body)
	assert.Equal(t, wantCode, errResp.Error.Code, "error code mismatch, body: %s", string(body))
}

// mustCreateItem はAPI経由でアイテムを作り、作成結果を返します
func mustCreateItem(t *testing.T, app *testApp, userID, guildID, name string) model.Item {
	t.Helper()
	code, body := doRequest(t, app, http.MethodPost, "/api/v1/items", model.PostItemRequest{
		UserID:   userID,
		GuildID:  guildID,
		Name:     name,
		ImageURL: "https://example.com/" + name + ".png",
	})
	require.Equal(t, http.StatusCreated, code, "body: %s", string(body))
	resp := decodeAs[model.ItemActionResponse](t, body)
	require.NotNil(t, resp.Item)
	return *resp.Item
}

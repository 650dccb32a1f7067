package request

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teachly/teachly-mobile-common/storage"
)

type memStorage struct {
	values map[string]string
}

func newMemStorage() *memStorage {
	return &memStorage{values: map[string]string{}}
}

func (s *memStorage) GetString(key string) string { return s.values[key] }
func (s *memStorage) SetString(key, value string) { s.values[key] = value }
func (s *memStorage) Delete(key string)           { delete(s.values, key) }

func testClient(endpoint string) *HttpClientStruct {
	return &HttpClientStruct{params: &Params{
		userAgent: "test client/app 1.0 (1)",
		endpoint:  endpoint,
		client:    &http.Client{},
	}}
}

func TestJoinTokenSendsIdentityAndBearer(t *testing.T) {
	store := newMemStorage()
	store.SetString("accessToken", "at-123")
	storage.Set(store)

	var got JoinTokenRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/call/token", r.URL.Path)
		assert.Equal(t, "Bearer at-123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]string{"token": "jt-456"})
	}))
	defer srv.Close()

	token, err := testClient(srv.URL).JoinToken(JoinTokenRequest{
		RoomName:        "algebra-1",
		ParticipantName: "Ann",
		Identity:        "s1",
		IsTeacher:       false,
	})
	require.NoError(t, err)
	assert.Equal(t, "jt-456", token)
	assert.Equal(t, "algebra-1", got.RoomName)
	assert.Equal(t, "s1", got.Identity)
}

func TestJoinTokenEmptyTokenIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "room closed"})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).JoinToken(JoinTokenRequest{RoomName: "r"})
	assert.ErrorIs(t, err, ErrToken)
	assert.Contains(t, err.Error(), "room closed")
}

func TestJoinTokenBackendFailureIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).JoinToken(JoinTokenRequest{RoomName: "r"})
	assert.ErrorIs(t, err, ErrToken)
}

func TestSetCallActivePatchesConversation(t *testing.T) {
	var gotPath string
	var gotBody map[string]bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, testClient(srv.URL).SetCallActive("conv-9", true))
	assert.Equal(t, "/v1/conversations/conv-9/call", gotPath)
	assert.Equal(t, map[string]bool{"active": true}, gotBody)
}

func TestSetCallActivePropagatesFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	assert.Error(t, testClient(srv.URL).SetCallActive("conv-9", false))
}

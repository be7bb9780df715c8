package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wk-archive/meetingmind/internal/types"
)

type fakeWhitelistStore struct {
	entries []types.WhitelistEntry
	err     error
	upserts []types.WhitelistEntry
	deletes []string
}

func (f *fakeWhitelistStore) List(context.Context) ([]types.WhitelistEntry, error) {
	return f.entries, f.err
}
func (f *fakeWhitelistStore) Upsert(_ context.Context, entry types.WhitelistEntry) error {
	f.upserts = append(f.upserts, entry)
	return f.err
}
func (f *fakeWhitelistStore) Delete(_ context.Context, identity string) error {
	f.deletes = append(f.deletes, identity)
	return f.err
}

func TestWhitelistHandler_List(t *testing.T) {
	store := &fakeWhitelistStore{entries: []types.WhitelistEntry{{Identity: "+12025550123"}}}
	h := NewWhitelistHandler(store)

	r := gin.New()
	r.GET("/admin/whitelist", h.List)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/whitelist", nil))

	require.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "+12025550123")
}

func TestWhitelistHandler_UpsertNormalizesIdentity(t *testing.T) {
	store := &fakeWhitelistStore{}
	h := NewWhitelistHandler(store)

	r := gin.New()
	r.POST("/admin/whitelist", h.Upsert)

	body := bytes.NewBufferString(`{"identity":"1-202-555-0123","active":true,"display_name":"Jordan"}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/whitelist", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, 200, w.Code)
	require.Len(t, store.upserts, 1)
	assert.Equal(t, "+12025550123", store.upserts[0].Identity)
}

func TestWhitelistHandler_UpsertRejectsUnparsableIdentity(t *testing.T) {
	store := &fakeWhitelistStore{}
	h := NewWhitelistHandler(store)

	r := gin.New()
	r.POST("/admin/whitelist", h.Upsert)

	body := bytes.NewBufferString(`{"identity":"not a number"}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/whitelist", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	assert.Empty(t, store.upserts)
}

func TestWhitelistHandler_Delete(t *testing.T) {
	store := &fakeWhitelistStore{}
	h := NewWhitelistHandler(store)

	r := gin.New()
	r.DELETE("/admin/whitelist/:id", h.Delete)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/admin/whitelist/+12025550123", nil))

	require.Equal(t, 200, w.Code)
	require.Len(t, store.deletes, 1)
	assert.Equal(t, "+12025550123", store.deletes[0])
}

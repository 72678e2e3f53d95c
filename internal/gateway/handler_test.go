package gateway

import (
	"bytes"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/squadbid/gavel/internal/auction"
	"github.com/squadbid/gavel/internal/catalog"
	"github.com/squadbid/gavel/internal/room"
	"github.com/squadbid/gavel/internal/roomstore"
	"github.com/squadbid/gavel/internal/schedule"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := roomstore.NewMemoryStore()
	engine := auction.NewEngine(schedule.DefaultPlan(), catalog.Lots(), rand.New(rand.NewPCG(1, 0)))
	app := auction.NewApp(store, engine)
	service := NewService(DefaultConfig(), app, store, clockwork.NewFakeClock())

	mux := http.NewServeMux()
	NewHandler(service).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeRoom(t *testing.T, resp *http.Response) room.Room {
	t.Helper()
	defer resp.Body.Close()
	var r room.Room
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&r))
	return r
}

func TestCreateAndGetRoom(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/rooms", createRoomRequest{
		Name: "friday night", HostID: "host", HostName: "Asha",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeRoom(t, resp)
	assert.Equal(t, room.StatusWaiting, created.Status)

	getResp, err := http.Get(srv.URL + "/api/rooms/" + created.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	got := decodeRoom(t, getResp)
	assert.Equal(t, created.ID, got.ID)
	assert.Contains(t, got.Members, "host")
}

func TestJoinRoomEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/rooms", createRoomRequest{
		Name: "friday night", HostID: "host", HostName: "Asha",
	})
	created := decodeRoom(t, resp)

	joinResp := postJSON(t, srv.URL+"/api/rooms/"+created.ID+"/join", joinRoomRequest{
		MemberID: "rival", Name: "Dev",
	})
	require.Equal(t, http.StatusOK, joinResp.StatusCode)
	joined := decodeRoom(t, joinResp)
	assert.Len(t, joined.Members, 2)

	// Joining twice is a state error.
	dup := postJSON(t, srv.URL+"/api/rooms/"+created.ID+"/join", joinRoomRequest{
		MemberID: "rival", Name: "Dev",
	})
	defer dup.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, dup.StatusCode)
}

func TestGetRoomNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/rooms/no-such-room")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteRoomRequiresHost(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/rooms", createRoomRequest{
		Name: "friday night", HostID: "host", HostName: "Asha",
	})
	created := decodeRoom(t, resp)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/rooms/"+created.ID+"?caller_id=rival", nil)
	require.NoError(t, err)
	forbidden, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer forbidden.Body.Close()
	assert.Equal(t, http.StatusForbidden, forbidden.StatusCode)

	req, err = http.NewRequest(http.MethodDelete, srv.URL+"/api/rooms/"+created.ID+"?caller_id=host", nil)
	require.NoError(t, err)
	ok, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer ok.Body.Close()
	assert.Equal(t, http.StatusNoContent, ok.StatusCode)
}

func TestCatalogEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/catalog/lots")
	require.NoError(t, err)
	defer resp.Body.Close()
	var lots []catalog.Lot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&lots))
	assert.Len(t, lots, len(catalog.Lots()))

	resp, err = http.Get(srv.URL + "/api/catalog/franchises")
	require.NoError(t, err)
	defer resp.Body.Close()
	var franchises []catalog.Franchise
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&franchises))
	assert.Len(t, franchises, len(catalog.Franchises))
}

func TestWebSocketRejectsNonMember(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/rooms", createRoomRequest{
		Name: "friday night", HostID: "host", HostName: "Asha",
	})
	created := decodeRoom(t, resp)

	wsResp, err := http.Get(srv.URL + "/ws/room?room_id=" + created.ID + "&member_id=stranger")
	require.NoError(t, err)
	defer wsResp.Body.Close()
	assert.Equal(t, http.StatusForbidden, wsResp.StatusCode)
}

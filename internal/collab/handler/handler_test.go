package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/gopi-c-k/gopzCollab-sub000/internal/collab"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/document"
	docrepo "github.com/gopi-c-k/gopzCollab-sub000/internal/document/repository"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/sessions"
)

func setup(t *testing.T) (func(sub string) *gin.Engine, string) {
	t.Helper()
	store := docrepo.NewMemoryStore()
	registry := sessions.NewMemoryRegistry()
	orch := collab.NewOrchestrator(store, registry, nil)

	docID, err := store.Create(context.Background(), &document.Document{
		Title:         "Notes",
		Type:          document.TypeText,
		OwnerID:       "owner",
		Collaborators: []string{"bob"},
		Content:       "hello",
		JoinCode:      "123456",
	})
	require.NoError(t, err)

	router := func(sub string) *gin.Engine {
		g := gin.New()
		g.Use(func(c *gin.Context) {
			c.Set("userID", sub)
			c.Next()
		})
		RegisterSessionRoutes(g, orch)
		return g
	}
	return router, docID
}

func post(g *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
	return w
}

func TestSessionRoutes_OpenJoinEnd(t *testing.T) {
	router, docID := setup(t)
	owner := router("owner")
	bob := router("bob")

	w := post(owner, "/documents/"+docID+"/session")
	require.Equal(t, http.StatusOK, w.Code)
	var opened map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &opened))
	require.Equal(t, true, opened["isNewSession"])
	require.Equal(t, "hello", opened["seedContent"])
	sid := opened["sessionId"].(string)
	require.NotEmpty(t, sid)

	// a second opener joins the same session
	w = post(bob, "/documents/"+docID+"/session")
	require.Equal(t, http.StatusOK, w.Code)
	var joined map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &joined))
	require.Equal(t, false, joined["isNewSession"])
	require.Equal(t, sid, joined["sessionId"])
	_, hasSeed := joined["seedContent"]
	require.False(t, hasSeed)

	w = post(bob, "/sessions/"+sid+"/ping")
	require.Equal(t, http.StatusOK, w.Code)

	w = post(bob, "/sessions/"+sid+"/end")
	require.Equal(t, http.StatusOK, w.Code)

	// ending again is fine; pinging a dead session is not
	w = post(owner, "/sessions/"+sid+"/end")
	require.Equal(t, http.StatusOK, w.Code)
	w = post(owner, "/sessions/"+sid+"/ping")
	require.Equal(t, http.StatusGone, w.Code)
}

func TestSessionRoutes_Errors(t *testing.T) {
	router, docID := setup(t)
	owner := router("owner")
	stranger := router("stranger")

	w := post(stranger, "/documents/"+docID+"/session")
	require.Equal(t, http.StatusForbidden, w.Code)

	w = post(owner, "/documents/missing/session")
	require.Equal(t, http.StatusNotFound, w.Code)

	w = post(owner, "/sessions/missing/ping")
	require.Equal(t, http.StatusNotFound, w.Code)

	w = post(owner, "/sessions/missing/end")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionRoutes_RoomState(t *testing.T) {
	router, docID := setup(t)
	owner := router("owner")
	stranger := router("stranger")

	get := func(g *gin.Engine, path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	w := get(owner, "/documents/"+docID+"/room")
	require.Equal(t, http.StatusOK, w.Code)
	var st map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	require.Equal(t, "Notes", st["title"])
	_, hasActive := st["activeSessionId"]
	require.False(t, hasActive)

	opened := post(owner, "/documents/"+docID+"/session")
	require.Equal(t, http.StatusOK, opened.Code)
	var res map[string]interface{}
	require.NoError(t, json.Unmarshal(opened.Body.Bytes(), &res))

	w = get(owner, "/documents/"+docID+"/room")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	require.Equal(t, res["sessionId"], st["activeSessionId"])

	w = get(stranger, "/documents/"+docID+"/room")
	require.Equal(t, http.StatusForbidden, w.Code)
}

package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mont-sinai/chorale/internal/model"
)

func doMultipart(t *testing.T, router http.Handler, method, path, token string, fields map[string]string, files map[string][]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	for field, names := range files {
		for _, name := range names {
			part, err := writer.CreateFormFile(field, name)
			require.NoError(t, err)
			_, err = part.Write([]byte("fake content"))
			require.NoError(t, err)
		}
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func seedSubCategory(t *testing.T, f *fixture, adminToken string) string {
	t.Helper()
	categoryID := createCategory(t, f, adminToken, "Messe "+newTestID())
	resp := doJSON(f.router, http.MethodPost, "/api/v1/sub-categories", map[string]string{
		"categoryId": categoryID,
		"name":       "Kyrie",
	}, adminToken)
	require.Equal(t, http.StatusCreated, resp.Code)
	var created struct {
		Data model.SubCategory `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	return created.Data.ID
}

func TestPlancheUploadAndFetch(t *testing.T) {
	f := setupRouter(t)
	defer f.cleanup()

	_, adminToken := f.seedUser(t, model.RoleAdmin, model.StatusActive)
	_, choristeToken := f.seedUser(t, model.RoleChoriste, model.StatusActive)
	subCategoryID := seedSubCategory(t, f, adminToken)

	resp := doMultipart(t, f.router, http.MethodPost, "/api/v1/planches", adminToken,
		map[string]string{"title": "Kyrie eleison", "subCategoryId": subCategoryID},
		map[string][]string{
			"planche": {"page1.pdf", "page2.png"},
			"audios":  {"tenor.mp3"},
		})
	require.Equal(t, http.StatusCreated, resp.Code)
	var created struct {
		Data model.Planche `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	require.Len(t, created.Data.Files, 2)
	require.Len(t, created.Data.AudioFiles, 1)

	// visible to an authenticated choriste
	resp = doJSON(f.router, http.MethodGet, "/api/v1/planches/"+created.Data.ID, nil, choristeToken)
	require.Equal(t, http.StatusOK, resp.Code)

	// uploads are admin only
	resp = doMultipart(t, f.router, http.MethodPost, "/api/v1/planches", choristeToken,
		map[string]string{"title": "Gloria", "subCategoryId": subCategoryID},
		map[string][]string{"planche": {"page.pdf"}})
	require.Equal(t, http.StatusForbidden, resp.Code)

	// append one more page
	resp = doMultipart(t, f.router, http.MethodPut, "/api/v1/planches/"+created.Data.ID, adminToken,
		nil,
		map[string][]string{"planche": {"page3.jpg"}})
	require.Equal(t, http.StatusOK, resp.Code)
	var updated struct {
		Data model.Planche `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
	require.Len(t, updated.Data.Files, 3)

	resp = doJSON(f.router, http.MethodDelete, "/api/v1/planches/"+created.Data.ID, nil, adminToken)
	require.Equal(t, http.StatusOK, resp.Code)
	resp = doJSON(f.router, http.MethodGet, "/api/v1/planches/"+created.Data.ID, nil, choristeToken)
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestPlancheUploadValidation(t *testing.T) {
	f := setupRouter(t)
	defer f.cleanup()

	_, adminToken := f.seedUser(t, model.RoleAdmin, model.StatusActive)
	subCategoryID := seedSubCategory(t, f, adminToken)

	// no planche file at all
	resp := doMultipart(t, f.router, http.MethodPost, "/api/v1/planches", adminToken,
		map[string]string{"title": "Sanctus", "subCategoryId": subCategoryID},
		map[string][]string{"audios": {"tenor.mp3"}})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	// wrong extension for the planche field
	resp = doMultipart(t, f.router, http.MethodPost, "/api/v1/planches", adminToken,
		map[string]string{"title": "Sanctus", "subCategoryId": subCategoryID},
		map[string][]string{"planche": {"notes.txt"}})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	// unknown sub-category
	resp = doMultipart(t, f.router, http.MethodPost, "/api/v1/planches", adminToken,
		map[string]string{"title": "Sanctus", "subCategoryId": newTestID()},
		map[string][]string{"planche": {"page.pdf"}})
	require.Equal(t, http.StatusNotFound, resp.Code)

	// unexpected file field
	resp = doMultipart(t, f.router, http.MethodPost, "/api/v1/planches", adminToken,
		map[string]string{"title": "Sanctus", "subCategoryId": subCategoryID},
		map[string][]string{"planche": {"page.pdf"}, "extra": {"evil.pdf"}})
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestPlancheListFilters(t *testing.T) {
	f := setupRouter(t)
	defer f.cleanup()

	_, adminToken := f.seedUser(t, model.RoleAdmin, model.StatusActive)
	subCategoryID := seedSubCategory(t, f, adminToken)

	title := "Agnus Dei " + newTestID()
	resp := doMultipart(t, f.router, http.MethodPost, "/api/v1/planches", adminToken,
		map[string]string{"title": title, "subCategoryId": subCategoryID},
		map[string][]string{"planche": {"page.pdf"}})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = doJSON(f.router, http.MethodGet, "/api/v1/planches?search="+newTestID(), nil, adminToken)
	require.Equal(t, http.StatusOK, resp.Code)
	var empty struct {
		Data []model.Planche `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &empty))
	require.Empty(t, empty.Data)

	resp = doJSON(f.router, http.MethodGet, "/api/v1/planches?subCategoryId="+subCategoryID, nil, adminToken)
	require.Equal(t, http.StatusOK, resp.Code)
	var filtered struct {
		Data []model.Planche `json:"data"`
		Meta struct {
			Total int `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &filtered))
	require.Equal(t, 1, filtered.Meta.Total)
	require.Equal(t, title, filtered.Data[0].Title)
}

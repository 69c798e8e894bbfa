package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tuanvumaihuynh/catalog-sync/internal/apperr"
	"github.com/tuanvumaihuynh/catalog-sync/internal/config"
	apphttp "github.com/tuanvumaihuynh/catalog-sync/internal/http"
	"github.com/tuanvumaihuynh/catalog-sync/internal/imagefetch"
	"github.com/tuanvumaihuynh/catalog-sync/internal/importer"
	"github.com/tuanvumaihuynh/catalog-sync/internal/model"
	"github.com/tuanvumaihuynh/catalog-sync/internal/repository/repotest"
	"github.com/tuanvumaihuynh/catalog-sync/internal/service"
	"github.com/tuanvumaihuynh/catalog-sync/internal/storage/blob"
)

type fakeImporter struct {
	src   config.Source
	calls int
	res   importer.Result
	err   error
}

func (f *fakeImporter) Run(_ context.Context, src config.Source) (importer.Result, error) {
	f.calls++
	f.src = src
	return f.res, f.err
}

type fakeBatches struct {
	limits []int
}

func (f *fakeBatches) RunBatch(_ context.Context, limit int) imagefetch.BatchResult {
	f.limits = append(f.limits, limit)
	return imagefetch.BatchResult{Attempted: 2, Succeeded: 1, Failed: 1}
}

type fakeHealth struct {
	err error
}

func (h fakeHealth) IsHealthy(context.Context) (bool, error) {
	return h.err == nil, h.err
}

type fixture struct {
	handler  http.Handler
	importer *fakeImporter
	batches  *fakeBatches
	products *repotest.ProductRepository
	syncRuns service.SyncRunService
	blobs    *blob.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	f := &fixture{
		importer: &fakeImporter{res: importer.Result{Status: importer.StatusSucceeded, RecordsFetched: 3, ProductsUpserted: 3}},
		batches:  &fakeBatches{},
		products: repotest.NewProductRepository(),
		blobs:    blob.NewMemoryStore(),
	}
	f.syncRuns = service.NewSyncRunService(repotest.NewDB(), repotest.NewSyncRunRepository(), repotest.NewOutboxMsgRepository())

	svc := apphttp.New(
		config.HTTP{Swagger: true, AllowedOrigins: []string{"*"}},
		config.Admin{Username: "admin", PasswordHash: string(hash)},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		apphttp.Deps{
			Source:     config.Source{BaseID: "app1", Table: "Products", Token: "t"},
			Importer:   f.importer,
			Images:     f.batches,
			ProductSvc: service.NewProductService(f.products),
			SyncRunSvc: f.syncRuns,
			Blobs:      f.blobs,
		},
	)
	f.handler = svc.Handler()

	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	f.handler.ServeHTTP(resp, req)
	return resp
}

func adminRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.SetBasicAuth("admin", "s3cret")
	return req
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &v))
	return v
}

func TestProductRoutes(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for _, sku := range []string{"ABC-1", "ABC-2", "ABC-3"} {
		f.products.Seed(model.Product{
			Sku:        sku,
			Name:       "Product " + sku,
			Active:     true,
			ImageState: model.ImageStatePending,
			Images:     []model.ProductImage{{Sku: sku, Position: 0, SourceURL: "https://x.test/" + sku + ".jpg"}},
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	t.Run("Should list a page of products", func(t *testing.T) {
		resp := f.do(httptest.NewRequest(http.MethodGet, "/products?limit=1&offset=1", nil))

		require.Equal(t, http.StatusOK, resp.Code)
		body := decode[struct {
			Items  []model.Product `json:"items"`
			Limit  int32           `json:"limit"`
			Offset int32           `json:"offset"`
		}](t, resp)
		require.Len(t, body.Items, 1)
		assert.Equal(t, "ABC-2", body.Items[0].Sku)
		assert.Equal(t, int32(1), body.Limit)
		assert.Equal(t, int32(1), body.Offset)
	})

	t.Run("Should return an empty list past the end", func(t *testing.T) {
		resp := f.do(httptest.NewRequest(http.MethodGet, "/products?offset=10", nil))

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"items":[]`)
	})

	t.Run("Should reject a non numeric limit", func(t *testing.T) {
		resp := f.do(httptest.NewRequest(http.MethodGet, "/products?limit=abc", nil))

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, apperr.ValidationErrorCode, decode[map[string]any](t, resp)["code"])
	})

	t.Run("Should reject an out of range limit with field details", func(t *testing.T) {
		resp := f.do(httptest.NewRequest(http.MethodGet, "/products?limit=0", nil))

		require.Equal(t, http.StatusBadRequest, resp.Code)
		body := decode[struct {
			Code    string `json:"code"`
			Details []struct {
				Field string `json:"field"`
			} `json:"details"`
		}](t, resp)
		assert.Equal(t, "validationError", body.Code)
		require.Len(t, body.Details, 1)
		assert.Equal(t, "Limit", body.Details[0].Field)
	})

	t.Run("Should get a product with its images", func(t *testing.T) {
		resp := f.do(httptest.NewRequest(http.MethodGet, "/products/ABC-1", nil))

		require.Equal(t, http.StatusOK, resp.Code)
		p := decode[model.Product](t, resp)
		assert.Equal(t, "ABC-1", p.Sku)
		require.Len(t, p.Images, 1)
		assert.Equal(t, "https://x.test/ABC-1.jpg", p.Images[0].SourceURL)
	})

	t.Run("Should return 404 for an unknown sku", func(t *testing.T) {
		resp := f.do(httptest.NewRequest(http.MethodGet, "/products/NOPE", nil))

		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Equal(t, apperr.ProductNotFoundErrorCode, decode[map[string]any](t, resp)["code"])
	})
}

func TestImageRoute(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.blobs.Put(context.Background(), "ABC-1/hammer.jpg", []byte("jpeg-bytes"), blob.PutOptions{
		ContentType: "image/jpeg",
	}))

	t.Run("Should stream a stored image", func(t *testing.T) {
		resp := f.do(httptest.NewRequest(http.MethodGet, "/images/ABC-1/hammer.jpg", nil))

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "jpeg-bytes", resp.Body.String())
		assert.Equal(t, "image/jpeg", resp.Header().Get("Content-Type"))
		assert.Equal(t, "10", resp.Header().Get("Content-Length"))
		assert.Contains(t, resp.Header().Get("Cache-Control"), "max-age=")
		assert.NotEmpty(t, resp.Header().Get("ETag"))
	})

	t.Run("Should answer 304 for a matching etag", func(t *testing.T) {
		first := f.do(httptest.NewRequest(http.MethodGet, "/images/ABC-1/hammer.jpg", nil))

		req := httptest.NewRequest(http.MethodGet, "/images/ABC-1/hammer.jpg", nil)
		req.Header.Set("If-None-Match", first.Header().Get("ETag"))
		resp := f.do(req)

		assert.Equal(t, http.StatusNotModified, resp.Code)
		assert.Empty(t, resp.Body.String())
	})

	t.Run("Should answer HEAD without a body", func(t *testing.T) {
		resp := f.do(httptest.NewRequest(http.MethodHead, "/images/ABC-1/hammer.jpg", nil))

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "image/jpeg", resp.Header().Get("Content-Type"))
		assert.Empty(t, resp.Body.String())
	})

	t.Run("Should return 404 for a missing image", func(t *testing.T) {
		resp := f.do(httptest.NewRequest(http.MethodGet, "/images/ABC-1/other.jpg", nil))

		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Equal(t, apperr.ImageNotFoundErrorCode, decode[map[string]any](t, resp)["code"])
	})
}

func TestAdminRoutes(t *testing.T) {
	t.Run("Should require credentials", func(t *testing.T) {
		f := newFixture(t)

		for _, req := range []*http.Request{
			httptest.NewRequest(http.MethodPost, "/admin/import", nil),
			httptest.NewRequest(http.MethodPost, "/admin/images/batch", nil),
			httptest.NewRequest(http.MethodGet, "/admin/sync-runs", nil),
		} {
			resp := f.do(req)
			assert.Equal(t, http.StatusUnauthorized, resp.Code, req.URL.Path)
		}
		assert.Zero(t, f.importer.calls)
		assert.Empty(t, f.batches.limits)
	})

	t.Run("Should run the importer with the configured source", func(t *testing.T) {
		f := newFixture(t)

		resp := f.do(adminRequest(http.MethodPost, "/admin/import"))

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, 1, f.importer.calls)
		assert.Equal(t, "app1", f.importer.src.BaseID)

		res := decode[importer.Result](t, resp)
		assert.Equal(t, importer.StatusSucceeded, res.Status)
		assert.Equal(t, 3, res.ProductsUpserted)
	})

	t.Run("Should report a failed run with 200", func(t *testing.T) {
		f := newFixture(t)
		f.importer.res = importer.Result{Status: importer.StatusFailed, Error: "source list page: boom"}

		resp := f.do(adminRequest(http.MethodPost, "/admin/import"))

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, importer.StatusFailed, decode[importer.Result](t, resp).Status)
	})

	t.Run("Should map an incomplete source configuration to 422", func(t *testing.T) {
		f := newFixture(t)
		f.importer.err = apperr.SourceConfigErr.WithMsg("missing source settings: SOURCE_TOKEN")

		resp := f.do(adminRequest(http.MethodPost, "/admin/import"))

		require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
		body := decode[map[string]any](t, resp)
		assert.Equal(t, apperr.SourceConfigErrorCode, body["code"])
		assert.Equal(t, "missing source settings: SOURCE_TOKEN", body["message"])
	})

	t.Run("Should run an image batch with the requested limit", func(t *testing.T) {
		f := newFixture(t)

		resp := f.do(adminRequest(http.MethodPost, "/admin/images/batch?limit=5"))
		require.Equal(t, http.StatusOK, resp.Code)

		resp = f.do(adminRequest(http.MethodPost, "/admin/images/batch"))
		require.Equal(t, http.StatusOK, resp.Code)

		assert.Equal(t, []int{5, 0}, f.batches.limits)
		res := decode[imagefetch.BatchResult](t, resp)
		assert.Equal(t, 2, res.Attempted)
		assert.Equal(t, 1, res.Failed)
	})

	t.Run("Should reject a negative batch limit", func(t *testing.T) {
		f := newFixture(t)

		resp := f.do(adminRequest(http.MethodPost, "/admin/images/batch?limit=-1"))

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Empty(t, f.batches.limits)
	})

	t.Run("Should list sync runs filtered by kind", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		importID, err := f.syncRuns.StartRun(ctx, model.SyncRunKindImport)
		require.NoError(t, err)
		require.NoError(t, f.syncRuns.FinishRun(ctx, service.FinishRunParams{
			ID:      importID,
			Kind:    model.SyncRunKindImport,
			Status:  model.SyncRunStatusSucceeded,
			Summary: importer.Result{Status: importer.StatusSucceeded},
		}))
		_, err = f.syncRuns.StartRun(ctx, model.SyncRunKindImages)
		require.NoError(t, err)

		resp := f.do(adminRequest(http.MethodGet, "/admin/sync-runs?kind=import"))
		require.Equal(t, http.StatusOK, resp.Code)

		body := decode[struct {
			Items []model.SyncRun `json:"items"`
		}](t, resp)
		require.Len(t, body.Items, 1)
		assert.Equal(t, importID, body.Items[0].ID)
		assert.Equal(t, model.SyncRunStatusSucceeded, body.Items[0].Status)

		resp = f.do(adminRequest(http.MethodGet, "/admin/sync-runs"))
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Len(t, decode[struct {
			Items []model.SyncRun `json:"items"`
		}](t, resp).Items, 2)
	})

	t.Run("Should reject an unknown run kind", func(t *testing.T) {
		f := newFixture(t)

		resp := f.do(adminRequest(http.MethodGet, "/admin/sync-runs?kind=bogus"))

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestOperationalRoutes(t *testing.T) {
	f := newFixture(t)

	t.Run("Should expose prometheus metrics", func(t *testing.T) {
		f.do(httptest.NewRequest(http.MethodGet, "/products", nil))

		resp := f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), "http_requests_total")
	})

	t.Run("Should report healthy without a checker", func(t *testing.T) {
		resp := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "ok", decode[map[string]any](t, resp)["status"])
	})

	t.Run("Should serve the api docs", func(t *testing.T) {
		resp := f.do(httptest.NewRequest(http.MethodGet, "/docs/openapi.json", nil))

		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("Should echo the correlation id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		req.Header.Set("X-Correlation-ID", "corr-9")

		resp := f.do(req)

		assert.Equal(t, "corr-9", resp.Header().Get("X-Correlation-ID"))
	})
}

func TestHealthRoute(t *testing.T) {
	newService := func(health fakeHealth) http.Handler {
		return apphttp.New(
			config.HTTP{},
			config.Admin{},
			slog.New(slog.NewTextHandler(io.Discard, nil)),
			apphttp.Deps{Health: health},
		).Handler()
	}

	t.Run("Should report ok when the database answers", func(t *testing.T) {
		resp := httptest.NewRecorder()
		newService(fakeHealth{}).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("Should report unavailable when the database does not", func(t *testing.T) {
		resp := httptest.NewRecorder()
		newService(fakeHealth{err: errors.New("connection refused")}).
			ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	})
}

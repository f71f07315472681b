package request_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/gearguard/internal/auth"
	coreUser "github.com/frahmantamala/gearguard/internal/core/user"
	"github.com/frahmantamala/gearguard/internal/request"
)

var _ = Describe("Request Handler", func() {
	var (
		repo   *MockRepository
		router chi.Router
	)

	as := func(user *auth.User) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if user != nil {
					r = r.WithContext(auth.ContextWithUser(r.Context(), user))
				}
				next.ServeHTTP(w, r)
			})
		}
	}

	mount := func(user *auth.User) {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		h := request.NewHandler(request.NewService(repo, request.AllowAll{}, nil, logger))
		router = chi.NewRouter()
		router.Use(as(user))
		router.Get("/requests", h.ListRequests)
		router.Post("/requests", h.CreateRequest)
		router.Get("/requests/{id}", h.GetRequest)
		router.Patch("/requests/{id}/status", h.UpdateRequestStatus)
		router.Delete("/requests/{id}", h.DeleteRequest)
		router.Get("/dashboard/stats", h.DashboardStats)
	}

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	errorCode := func(rec *httptest.ResponseRecorder) string {
		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		return body.Error.Code
	}

	rita := &auth.User{ID: 4, Email: "rita@example.com", Role: coreUser.RoleRequester, IsActive: true}

	BeforeEach(func() {
		repo = NewMockRepository()
	})

	It("answers 401 without an identity", func() {
		mount(nil)

		rec := do(http.MethodGet, "/requests", "")

		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		Expect(errorCode(rec)).To(Equal("AUTH_REQUIRED"))
	})

	It("creates with the caller as creator", func() {
		mount(rita)

		rec := do(http.MethodPost, "/requests", `{"subject":"Printer Jam","equipment_id":7,"scheduled_date":"2024-03-01T09:00","created_by_id":1}`)

		Expect(rec.Code).To(Equal(http.StatusCreated))
		var got request.Request
		Expect(json.Unmarshal(rec.Body.Bytes(), &got)).To(Succeed())
		Expect(got.CreatedByID).To(Equal(int64(4)))
		Expect(got.Status).To(Equal(request.StatusNew))
	})

	It("reports field errors with 400", func() {
		mount(rita)

		rec := do(http.MethodPost, "/requests", `{"subject":"","equipment_id":7,"scheduled_date":"2024-03-01"}`)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(errorCode(rec)).To(Equal("VALIDATION_FAILED"))
	})

	It("rejects a malformed body", func() {
		mount(rita)

		rec := do(http.MethodPost, "/requests", `{"subject":`)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("moves a card through the status endpoint", func() {
		repo.Seed(&request.Request{ID: 12, Subject: "Printer Jam", Status: request.StatusNew, CreatedByID: 4})
		mount(rita)

		rec := do(http.MethodPatch, "/requests/12/status", `{"status":"IN_PROGRESS"}`)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(repo.requests[12].Status).To(Equal(request.StatusInProgress))
	})

	It("answers 404 for someone else's request and for a second delete", func() {
		repo.Seed(&request.Request{ID: 12, Subject: "mine", Status: request.StatusNew, CreatedByID: 4})
		repo.Seed(&request.Request{ID: 13, Subject: "theirs", Status: request.StatusNew, CreatedByID: 5})
		mount(rita)

		Expect(do(http.MethodGet, "/requests/13", "").Code).To(Equal(http.StatusNotFound))
		Expect(do(http.MethodDelete, "/requests/12", "").Code).To(Equal(http.StatusOK))

		rec := do(http.MethodDelete, "/requests/12", "")
		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(errorCode(rec)).To(Equal("REQUEST_NOT_FOUND"))
	})

	It("rejects a non-numeric path id", func() {
		mount(rita)
		Expect(do(http.MethodGet, "/requests/abc", "").Code).To(Equal(http.StatusBadRequest))
	})

	It("serves scoped dashboard stats", func() {
		repo.Seed(&request.Request{ID: 1, Status: request.StatusNew, CreatedByID: 4})
		repo.Seed(&request.Request{ID: 2, Status: request.StatusRepaired, CreatedByID: 5})
		mount(rita)

		rec := do(http.MethodGet, "/dashboard/stats", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(`{"total":1,"pending":1,"in_progress":0,"completed":0}`))
	})
})

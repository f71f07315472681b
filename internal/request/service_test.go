package request_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/gearguard/internal"
	"github.com/frahmantamala/gearguard/internal/authz"
	"github.com/frahmantamala/gearguard/internal/core/common/coerce"
	"github.com/frahmantamala/gearguard/internal/core/events"
	coreUser "github.com/frahmantamala/gearguard/internal/core/user"
	"github.com/frahmantamala/gearguard/internal/request"
)

func TestRequest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Request Suite")
}

// MockRepository keeps requests in memory and understands sq.Eq scope conditions.
type MockRepository struct {
	requests    map[int64]*request.Request
	nextID      int64
	equipment   map[int64]bool
	technicians map[int64]bool
	teams       map[int64]bool

	createErr error
	updateErr error
	deleteErr error
	getErr    error

	updateCalls int
	lastChanges map[string]interface{}
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		requests:    make(map[int64]*request.Request),
		nextID:      1,
		equipment:   map[int64]bool{7: true},
		technicians: map[int64]bool{2: true},
		teams:       map[int64]bool{1: true},
	}
}

func matches(cond sq.Sqlizer, r *request.Request) bool {
	if cond == nil {
		return true
	}
	eq, ok := cond.(sq.Eq)
	if !ok {
		return false
	}
	for col, v := range eq {
		want := v.(int64)
		switch col {
		case authz.ColumnCreatedBy:
			if r.CreatedByID != want {
				return false
			}
		case authz.ColumnAssignedTechnician:
			if r.AssignedTechnicianID == nil || *r.AssignedTechnicianID != want {
				return false
			}
		}
	}
	return true
}

func (m *MockRepository) Seed(r *request.Request) *request.Request {
	if r.ID == 0 {
		r.ID = m.nextID
	}
	if r.ID >= m.nextID {
		m.nextID = r.ID + 1
	}
	m.requests[r.ID] = r
	return r
}

func (m *MockRepository) Create(_ context.Context, r *request.Request) error {
	if m.createErr != nil {
		return m.createErr
	}
	copied := *r
	m.Seed(&copied)
	r.ID = copied.ID
	return nil
}

func (m *MockRepository) GetByID(_ context.Context, id int64, cond sq.Sqlizer) (*request.Request, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	r, ok := m.requests[id]
	if !ok || !matches(cond, r) {
		return nil, internal.ErrRequestNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *MockRepository) filter(cond sq.Sqlizer) []*request.Request {
	var out []*request.Request
	for _, r := range m.requests {
		if matches(cond, r) {
			copied := *r
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MockRepository) List(_ context.Context, cond sq.Sqlizer) ([]*request.Request, error) {
	return m.filter(cond), nil
}

func (m *MockRepository) Recent(_ context.Context, cond sq.Sqlizer, limit int) ([]*request.Request, error) {
	out := m.filter(cond)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockRepository) ListScheduledBetween(_ context.Context, cond sq.Sqlizer, from, to time.Time) ([]*request.Request, error) {
	var out []*request.Request
	for _, r := range m.filter(cond) {
		if !r.ScheduledDate.Before(from) && r.ScheduledDate.Before(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockRepository) Update(_ context.Context, id int64, changes map[string]interface{}) error {
	m.updateCalls++
	m.lastChanges = changes
	if m.updateErr != nil {
		return m.updateErr
	}
	r, ok := m.requests[id]
	if !ok {
		return internal.ErrRequestNotFound
	}
	for k, v := range changes {
		switch k {
		case "subject":
			r.Subject = v.(string)
		case "status":
			r.Status = request.Status(v.(string))
		case "type":
			r.Type = request.Type(v.(string))
		case "assigned_technician_id":
			r.AssignedTechnicianID = v.(*int64)
		case "maintenance_team_id":
			r.MaintenanceTeamID = v.(*int64)
		case "scheduled_date":
			r.ScheduledDate = v.(time.Time)
		}
	}
	return nil
}

func (m *MockRepository) Delete(_ context.Context, id int64) (int64, error) {
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	if _, ok := m.requests[id]; !ok {
		return 0, nil
	}
	delete(m.requests, id)
	return 1, nil
}

func (m *MockRepository) Stats(_ context.Context, cond sq.Sqlizer) (*request.Stats, error) {
	stats := &request.Stats{}
	for _, r := range m.filter(cond) {
		stats.Total++
		switch r.Status {
		case request.StatusNew:
			stats.Pending++
		case request.StatusInProgress:
			stats.InProgress++
		case request.StatusRepaired:
			stats.Completed++
		}
	}
	return stats, nil
}

func (m *MockRepository) EquipmentExists(_ context.Context, id int64) (bool, error) {
	return m.equipment[id], nil
}

func (m *MockRepository) TechnicianExists(_ context.Context, id int64) (bool, error) {
	return m.technicians[id], nil
}

func (m *MockRepository) TeamExists(_ context.Context, id int64) (bool, error) {
	return m.teams[id], nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

func decodeCreate(raw string) request.CreateRequestDTO {
	var dto request.CreateRequestDTO
	Expect(json.Unmarshal([]byte(raw), &dto)).To(Succeed())
	return dto
}

func strPtr(s string) *string { return &s }

var (
	admin      = &authz.Identity{ID: 1, Role: coreUser.RoleAdmin}
	technician = &authz.Identity{ID: 2, Role: coreUser.RoleTechnician}
	requester  = &authz.Identity{ID: 4, Role: coreUser.RoleRequester}
	stranger   = &authz.Identity{ID: 5, Role: coreUser.RoleRequester}
)

var _ = Describe("Request Service", func() {
	var (
		repo      *MockRepository
		publisher *recordingPublisher
		service   *request.Service
		ctx       context.Context
	)

	BeforeEach(func() {
		repo = NewMockRepository()
		publisher = &recordingPublisher{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = request.NewService(repo, request.AllowAll{}, publisher, logger)
		ctx = context.Background()
	})

	Describe("Create", func() {
		It("creates a corrective request for a requester with server-side ownership", func() {
			// Given
			dto := decodeCreate(`{
				"subject": "Printer Jam",
				"type": "CORRECTIVE",
				"equipment_id": "7",
				"scheduled_date": "2024-03-01T09:00",
				"created_by_id": 99
			}`)

			// When
			created, err := service.Create(ctx, requester, dto)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Status).To(Equal(request.StatusNew))
			Expect(created.CreatedByID).To(Equal(int64(4)))
			Expect(created.Type).To(Equal(request.TypeCorrective))
			Expect(created.EquipmentID).To(Equal(int64(7)))
			Expect(created.ScheduledDate).To(Equal(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)))
			Expect(publisher.Types()).To(Equal([]string{events.EventTypeRequestCreated}))
		})

		It("rejects a missing identity before touching the store", func() {
			dto := decodeCreate(`{"subject":"x","equipment_id":7,"scheduled_date":"2024-03-01"}`)

			_, err := service.Create(ctx, nil, dto)

			Expect(internal.IsAuth(err)).To(BeTrue())
			Expect(repo.requests).To(BeEmpty())
		})

		DescribeTable("validation failures",
			func(raw string, field string) {
				_, err := service.Create(ctx, admin, decodeCreate(raw))

				Expect(internal.IsValidation(err)).To(BeTrue())
				appErr, _ := internal.IsAppError(err)
				details := appErr.Details.(internal.ValidationErrors)
				Expect(details.Errors[0].Field).To(Equal(field))
				Expect(repo.requests).To(BeEmpty())
			},
			Entry("blank subject", `{"subject":"  ","equipment_id":7,"scheduled_date":"2024-03-01"}`, "subject"),
			Entry("missing equipment", `{"subject":"x","scheduled_date":"2024-03-01"}`, "equipment_id"),
			Entry("missing date", `{"subject":"x","equipment_id":7}`, "scheduled_date"),
			Entry("unknown type", `{"subject":"x","type":"URGENT","equipment_id":7,"scheduled_date":"2024-03-01"}`, "type"),
			Entry("short duration", `{"subject":"x","equipment_id":7,"scheduled_date":"2024-03-01","duration_hours":0.5}`, "duration_hours"),
		)

		It("rejects a non-numeric equipment reference at decode time", func() {
			var dto request.CreateRequestDTO
			err := json.Unmarshal([]byte(`{"subject":"x","equipment_id":"abc","scheduled_date":"2024-03-01"}`), &dto)
			Expect(err).To(HaveOccurred())
		})

		It("forbids requesters from creating preventive requests", func() {
			dto := decodeCreate(`{"subject":"Oil change","type":"PREVENTIVE","equipment_id":7,"scheduled_date":"2024-03-01"}`)

			_, err := service.Create(ctx, requester, dto)

			Expect(internal.IsForbidden(err)).To(BeTrue())
		})

		It("lets technicians create preventive requests in a target column", func() {
			dto := decodeCreate(`{"subject":"Oil change","type":"preventive","status":"IN_PROGRESS","equipment_id":7,"scheduled_date":"2024-03-01","assigned_technician_id":"2"}`)

			created, err := service.Create(ctx, technician, dto)

			Expect(err).NotTo(HaveOccurred())
			Expect(created.Type).To(Equal(request.TypePreventive))
			Expect(created.Status).To(Equal(request.StatusInProgress))
			Expect(*created.AssignedTechnicianID).To(Equal(int64(2)))
		})

		It("reports unknown equipment as not found", func() {
			dto := decodeCreate(`{"subject":"x","equipment_id":8,"scheduled_date":"2024-03-01"}`)

			_, err := service.Create(ctx, admin, dto)

			Expect(err).To(MatchError(internal.ErrEquipmentNotFound))
		})

		It("wraps store failures as persistence errors", func() {
			repo.createErr = errors.New("connection refused")
			dto := decodeCreate(`{"subject":"x","equipment_id":7,"scheduled_date":"2024-03-01"}`)

			_, err := service.Create(ctx, admin, dto)

			Expect(internal.IsPersistence(err)).To(BeTrue())
			Expect(publisher.Types()).To(BeEmpty())
		})
	})

	Describe("reads", func() {
		BeforeEach(func() {
			tech := int64(2)
			repo.Seed(&request.Request{ID: 1, Subject: "mine", Status: request.StatusNew, CreatedByID: 4})
			repo.Seed(&request.Request{ID: 2, Subject: "mine assigned", Status: request.StatusInProgress, CreatedByID: 4, AssignedTechnicianID: &tech})
			repo.Seed(&request.Request{ID: 3, Subject: "theirs", Status: request.StatusRepaired, CreatedByID: 5, AssignedTechnicianID: &tech})
		})

		It("never leaks other requesters' requests", func() {
			got, err := service.List(ctx, requester)

			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(2))
			for _, r := range got {
				Expect(r.CreatedByID).To(Equal(requester.ID))
			}
		})

		It("shows technicians everything on the board", func() {
			got, err := service.List(ctx, technician)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(3))
		})

		It("hides out-of-scope requests as not found", func() {
			_, err := service.Get(ctx, requester, 3)
			Expect(err).To(MatchError(internal.ErrRequestNotFound))
		})

		It("scopes technician stats by assignment", func() {
			stats, err := service.Stats(ctx, technician)

			Expect(err).NotTo(HaveOccurred())
			Expect(*stats).To(Equal(request.Stats{Total: 2, InProgress: 1, Completed: 1}))
		})

		It("scopes requester stats by creator and admin stats globally", func() {
			stats, err := service.Stats(ctx, requester)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Total).To(Equal(int64(2)))

			stats, err = service.Stats(ctx, admin)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Total).To(Equal(int64(3)))
		})

		It("defaults and caps the recent limit", func() {
			for i := 0; i < 60; i++ {
				repo.Seed(&request.Request{Subject: "bulk", Status: request.StatusNew, CreatedByID: 1})
			}

			got, err := service.Recent(ctx, admin, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(request.DefaultRecentLimit))

			got, err = service.Recent(ctx, admin, 500)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(request.MaxRecentLimit))
		})
	})

	Describe("Update", func() {
		BeforeEach(func() {
			repo.Seed(&request.Request{ID: 12, Subject: "Printer Jam", Type: request.TypeCorrective, Status: request.StatusNew, CreatedByID: 4, EquipmentID: 7})
		})

		It("applies only supplied fields and coerces string ids", func() {
			var dto request.UpdateRequestDTO
			Expect(json.Unmarshal([]byte(`{"status":"IN_PROGRESS","maintenance_team_id":"1"}`), &dto)).To(Succeed())

			updated, err := service.Update(ctx, admin, 12, dto)

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(request.StatusInProgress))
			Expect(updated.Subject).To(Equal("Printer Jam"))
			Expect(*updated.MaintenanceTeamID).To(Equal(int64(1)))
			Expect(repo.lastChanges).To(HaveKey("updated_at"))
			Expect(repo.lastChanges).NotTo(HaveKey("subject"))
			Expect(publisher.Types()).To(Equal([]string{events.EventTypeRequestUpdated}))
		})

		It("lets a requester drag their own request", func() {
			updated, err := service.UpdateStatus(ctx, requester, 12, request.StatusUpdateDTO{Status: "REPAIRED"})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(request.StatusRepaired))
		})

		It("denies a requester editing privileged fields", func() {
			_, err := service.Update(ctx, requester, 12, request.UpdateRequestDTO{Type: strPtr("PREVENTIVE")})

			Expect(internal.IsForbidden(err)).To(BeTrue())
			Expect(repo.updateCalls).To(BeZero())
		})

		It("denies assignment through the drag path for requesters", func() {
			_, err := service.UpdateStatus(ctx, requester, 12, request.StatusUpdateDTO{
				Status:               "IN_PROGRESS",
				AssignedTechnicianID: coerce.SetID(2),
			})

			Expect(internal.IsForbidden(err)).To(BeTrue())
		})

		It("reports another requester's request as not found", func() {
			_, err := service.UpdateStatus(ctx, stranger, 12, request.StatusUpdateDTO{Status: "SCRAP"})

			Expect(err).To(MatchError(internal.ErrRequestNotFound))
			Expect(repo.requests[12].Status).To(Equal(request.StatusNew))
		})

		It("does not write an empty patch", func() {
			got, err := service.Update(ctx, admin, 12, request.UpdateRequestDTO{})

			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(int64(12)))
			Expect(repo.updateCalls).To(BeZero())
			Expect(publisher.Types()).To(BeEmpty())
		})

		It("allows backward moves under the default policy", func() {
			repo.requests[12].Status = request.StatusRepaired

			updated, err := service.UpdateStatus(ctx, admin, 12, request.StatusUpdateDTO{Status: "NEW"})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(request.StatusNew))
		})

		It("enforces a configured transition rule", func() {
			policy, err := request.PolicyFromRule(`from != "SCRAP" || role == "ADMIN"`)
			Expect(err).NotTo(HaveOccurred())
			logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
			service = request.NewService(repo, policy, publisher, logger)
			repo.requests[12].Status = request.StatusScrap

			_, err = service.UpdateStatus(ctx, technician, 12, request.StatusUpdateDTO{Status: "NEW"})
			Expect(err).To(MatchError(internal.ErrTransitionNotAllowed))

			_, err = service.UpdateStatus(ctx, admin, 12, request.StatusUpdateDTO{Status: "NEW"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns not found for a missing id", func() {
			_, err := service.Update(ctx, admin, 404, request.UpdateRequestDTO{Subject: strPtr("x")})
			Expect(internal.IsNotFound(err)).To(BeTrue())
		})

		It("surfaces store failures", func() {
			repo.updateErr = errors.New("deadlock")

			_, err := service.UpdateStatus(ctx, admin, 12, request.StatusUpdateDTO{Status: "SCRAP"})

			Expect(internal.IsPersistence(err)).To(BeTrue())
		})
	})

	Describe("Delete", func() {
		BeforeEach(func() {
			repo.Seed(&request.Request{ID: 12, Subject: "Printer Jam", Status: request.StatusNew, CreatedByID: 4})
		})

		It("fails with not found on the second call", func() {
			// Given
			Expect(service.Delete(ctx, requester, 12)).To(Succeed())

			// When
			err := service.Delete(ctx, requester, 12)

			// Then
			Expect(err).To(MatchError(internal.ErrRequestNotFound))
			Expect(publisher.Types()).To(Equal([]string{events.EventTypeRequestDeleted}))
		})

		It("refuses to delete another requester's request", func() {
			err := service.Delete(ctx, stranger, 12)

			Expect(internal.IsNotFound(err)).To(BeTrue())
			Expect(repo.requests).To(HaveKey(int64(12)))
		})

		It("requires an identity", func() {
			Expect(internal.IsAuth(service.Delete(ctx, nil, 12))).To(BeTrue())
		})
	})
})

package schedule_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/gearguard/internal/auth"
	"github.com/frahmantamala/gearguard/internal/authz"
	coreUser "github.com/frahmantamala/gearguard/internal/core/user"
	"github.com/frahmantamala/gearguard/internal/request"
	"github.com/frahmantamala/gearguard/internal/schedule"
)

func TestSchedule(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Schedule Suite")
}

func req(id int64, status request.Status, at time.Time) request.Request {
	return request.Request{ID: id, Subject: "r", Status: status, ScheduledDate: at}
}

var _ = Describe("Kanban", func() {
	It("partitions every request into exactly one of four columns", func() {
		// Given
		now := time.Now()
		reqs := []request.Request{
			req(1, request.StatusNew, now),
			req(2, request.StatusInProgress, now),
			req(3, request.StatusRepaired, now),
			req(4, request.StatusScrap, now),
			req(5, request.StatusInProgress, now),
			req(6, request.Status("ON_HOLD"), now),
			req(7, request.Status(""), now),
		}

		// When
		board := schedule.Kanban(reqs)

		// Then
		Expect(board.Columns).To(HaveLen(4))
		sum := 0
		for _, c := range board.Columns {
			sum += len(c.Requests)
			Expect(c.Count).To(Equal(len(c.Requests)))
		}
		Expect(sum).To(Equal(len(reqs)))
		Expect(board.Total).To(Equal(len(reqs)))
		Expect(board.Column(request.StatusInProgress).Count).To(Equal(2))
	})

	It("defaults unrecognised statuses into NEW", func() {
		board := schedule.Kanban([]request.Request{req(9, request.Status("WAITING"), time.Now())})

		col := board.Column(request.StatusNew)
		Expect(col.Requests).To(HaveLen(1))
		Expect(col.Requests[0].ID).To(Equal(int64(9)))
	})

	It("keeps column order and empty columns", func() {
		board := schedule.Kanban(nil)

		Expect(board.Columns[0].Status).To(Equal(request.StatusNew))
		Expect(board.Columns[3].Status).To(Equal(request.StatusScrap))
		Expect(board.Columns[2].Requests).NotTo(BeNil())
	})
})

var _ = Describe("Calendar", func() {
	It("places a request in its date cell regardless of time of day", func() {
		// Given
		r := req(1, request.StatusNew, time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC))

		// When
		month := schedule.CalendarMonth(2024, time.June, []request.Request{r}, time.Sunday)

		// Then
		hits := 0
		for _, w := range month.Weeks {
			for _, d := range w {
				if len(d.Requests) > 0 {
					hits++
					Expect(d.Date).To(Equal("2024-06-15"))
				}
			}
		}
		Expect(hits).To(Equal(1))
	})

	It("buckets by the UTC date whatever zone the timestamp carries", func() {
		// Given
		plus3 := time.FixedZone("UTC+3", 3*60*60)
		r := req(1, request.StatusNew, time.Date(2024, 6, 15, 23, 30, 0, 0, time.UTC).In(plus3))

		// When
		month := schedule.CalendarMonth(2024, time.June, []request.Request{r}, time.Sunday)

		// Then
		day15, ok := month.Find("2024-06-15")
		Expect(ok).To(BeTrue())
		Expect(day15.Requests).To(HaveLen(1))
		day16, ok := month.Find("2024-06-16")
		Expect(ok).To(BeTrue())
		Expect(day16.Requests).To(BeEmpty())
	})

	It("keeps a request on the last grid day when it comes back in a later zone", func() {
		plus10 := time.FixedZone("UTC+10", 10*60*60)
		r := req(2, request.StatusNew, time.Date(2024, 7, 6, 20, 0, 0, 0, time.UTC).In(plus10))

		month := schedule.CalendarMonth(2024, time.June, []request.Request{r}, time.Sunday)

		last, ok := month.Find("2024-07-06")
		Expect(ok).To(BeTrue())
		Expect(last.Requests).To(HaveLen(1))
	})

	DescribeTable("GridBounds pads to whole weeks",
		func(weekStart time.Weekday, start, end string, weeks int) {
			from, to := schedule.GridBounds(2024, time.June, weekStart)

			Expect(schedule.DayKey(from)).To(Equal(start))
			Expect(schedule.DayKey(to)).To(Equal(end))
			Expect(from.Weekday()).To(Equal(weekStart))
			Expect(int(to.Sub(from).Hours()/24) / 7).To(Equal(weeks))
		},
		Entry("Sunday start", time.Sunday, "2024-05-26", "2024-07-07", 6),
		Entry("Monday start", time.Monday, "2024-05-27", "2024-07-01", 5),
	)

	It("marks padding days outside the month", func() {
		month := schedule.CalendarMonth(2024, time.June, nil, time.Sunday)

		Expect(month.Weeks).To(HaveLen(6))
		for _, w := range month.Weeks {
			Expect(w).To(HaveLen(7))
		}
		first := month.Weeks[0][0]
		Expect(first.Date).To(Equal("2024-05-26"))
		Expect(first.InMonth).To(BeFalse())

		day, ok := month.Find("2024-06-01")
		Expect(ok).To(BeTrue())
		Expect(day.InMonth).To(BeTrue())
	})

	It("shows requests on padding days and drops those off the grid", func() {
		reqs := []request.Request{
			req(1, request.StatusNew, time.Date(2024, 5, 27, 8, 0, 0, 0, time.UTC)),
			req(2, request.StatusNew, time.Date(2024, 8, 1, 8, 0, 0, 0, time.UTC)),
		}

		month := schedule.CalendarMonth(2024, time.June, reqs, time.Sunday)

		day, ok := month.Find("2024-05-27")
		Expect(ok).To(BeTrue())
		Expect(day.Requests).To(HaveLen(1))
		_, ok = month.Find("2024-08-01")
		Expect(ok).To(BeFalse())
	})
})

type fakeLister struct {
	reqs     []*request.Request
	gotFrom  time.Time
	gotTo    time.Time
	gotActor *authz.Identity
}

func (f *fakeLister) List(_ context.Context, actor *authz.Identity) ([]*request.Request, error) {
	f.gotActor = actor
	return f.reqs, nil
}

func (f *fakeLister) ListScheduled(_ context.Context, actor *authz.Identity, from, to time.Time) ([]*request.Request, error) {
	f.gotActor = actor
	f.gotFrom, f.gotTo = from, to
	return f.reqs, nil
}

var _ = Describe("Handler", func() {
	var (
		lister *fakeLister
		h      *schedule.Handler
	)

	serve := func(fn http.HandlerFunc, target string, withUser bool) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, target, nil)
		if withUser {
			r = r.WithContext(auth.ContextWithUser(r.Context(), &auth.User{ID: 4, Role: coreUser.RoleRequester}))
		}
		rec := httptest.NewRecorder()
		fn(rec, r)
		return rec
	}

	BeforeEach(func() {
		at := time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)
		lister = &fakeLister{reqs: []*request.Request{
			{ID: 12, Status: request.StatusNew, ScheduledDate: at},
			{ID: 13, Status: request.StatusScrap, ScheduledDate: at},
		}}
		h = schedule.NewHandler(lister, time.Sunday)
	})

	It("serves the kanban for the caller", func() {
		rec := serve(h.GetBoard, "/board", true)

		Expect(rec.Code).To(Equal(http.StatusOK))
		var board schedule.Board
		Expect(json.Unmarshal(rec.Body.Bytes(), &board)).To(Succeed())
		Expect(board.Total).To(Equal(2))
		Expect(board.Column(request.StatusScrap).Count).To(Equal(1))
		Expect(lister.gotActor.ID).To(Equal(int64(4)))
	})

	It("queries exactly the padded grid window", func() {
		rec := serve(h.GetCalendar, "/calendar?month=2024-06", true)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(schedule.DayKey(lister.gotFrom)).To(Equal("2024-05-26"))
		Expect(schedule.DayKey(lister.gotTo)).To(Equal("2024-07-07"))

		var month schedule.Month
		Expect(json.Unmarshal(rec.Body.Bytes(), &month)).To(Succeed())
		day, ok := month.Find("2024-06-15")
		Expect(ok).To(BeTrue())
		Expect(day.Requests).To(HaveLen(2))
	})

	It("rejects a malformed month", func() {
		rec := serve(h.GetCalendar, "/calendar?month=June", true)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("requires an identity", func() {
		Expect(serve(h.GetBoard, "/board", false).Code).To(Equal(http.StatusUnauthorized))
	})
})

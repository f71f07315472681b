package main_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/gearguard/cmd"
	"github.com/frahmantamala/gearguard/internal"
	"github.com/frahmantamala/gearguard/internal/board"
	"github.com/frahmantamala/gearguard/internal/board/restclient"
	"github.com/frahmantamala/gearguard/internal/core/common/coerce"
	"github.com/frahmantamala/gearguard/internal/core/datamodel"
	equipmentDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/equipment"
	"github.com/frahmantamala/gearguard/internal/request"
	"github.com/frahmantamala/gearguard/internal/transport/openapi"
	"github.com/frahmantamala/gearguard/pkg/logger"
)

func TestGearGuard(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "GearGuard Suite")
}

func testConfig() *internal.Config {
	return &internal.Config{
		Server: internal.ServerConfig{
			AllowedOrigins: "*",
			OpenAPIPath:    "api/openapi.yml",
		},
		Security: internal.SecurityConfig{
			AccessTokenSecret:    "access-secret-for-tests-0123456789abcdef",
			RefreshTokenSecret:   "refresh-secret-for-tests-0123456789abcdef",
			AccessTokenDuration:  15 * time.Minute,
			RefreshTokenDuration: 24 * time.Hour,
			BCryptCost:           bcrypt.MinCost,
		},
		Calendar: internal.CalendarConfig{WeekStart: "sunday"},
	}
}

func find(reqs []request.Request, subject string) request.Request {
	for _, r := range reqs {
		if r.Subject == subject {
			return r
		}
	}
	Fail("no request with subject " + subject)
	return request.Request{}
}

var _ = Describe("GearGuard", Ordered, func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
		gdb    *gorm.DB
		app    *cmd.App
		server *httptest.Server
	)

	newClient := func(email string) *restclient.Client {
		client := restclient.NewClient(restclient.Config{BaseURL: server.URL + "/api/v1"}, logger.Discard())
		_, err := client.Login(ctx, email, cmd.SeedPassword)
		Expect(err).NotTo(HaveOccurred())
		return client
	}

	BeforeAll(func() {
		ctx, cancel = context.WithCancel(context.Background())

		var err error
		gdb, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := gdb.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(gdb.AutoMigrate(datamodel.All()...)).To(Succeed())

		summary, err := cmd.Seed(ctx, gdb, cmd.SeedOptions{
			BCryptCost: bcrypt.MinCost,
			Now:        time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Requests).To(Equal(8))

		app, err = cmd.NewApp(ctx, cmd.Dependencies{
			Config: testConfig(),
			DB:     sqlx.NewDb(sqlDB, "sqlite3"),
			Gorm:   gdb,
			Logger: logger.Discard(),
		})
		Expect(err).NotTo(HaveOccurred())
		app.Start(ctx)
		server = httptest.NewServer(app.Router)
	})

	AfterAll(func() {
		server.Close()
		app.Close()
		cancel()
	})

	It("ships a valid API document and serves it", func() {
		_, err := openapi.Load(ctx, "api/openapi.yml")
		Expect(err).NotTo(HaveOccurred())

		resp, err := http.Get(server.URL + "/openapi.yml")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	It("reports healthy without redis", func() {
		resp, err := http.Get(server.URL + "/api/v1/health")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	It("seeds the admin board across all four columns", func() {
		syncer := board.NewSynchronizer(newClient("admin@gearguard.com"), logger.Discard())
		Expect(syncer.Refresh(ctx)).To(Succeed())

		b := syncer.Board()
		Expect(b.Total).To(Equal(8))
		Expect(b.Column(request.StatusNew).Count).To(Equal(4))
		Expect(b.Column(request.StatusInProgress).Count).To(Equal(2))
		Expect(b.Column(request.StatusRepaired).Count).To(Equal(1))
		Expect(b.Column(request.StatusScrap).Count).To(Equal(1))
	})

	It("moves a card, persists it and bumps the view versions", func() {
		// Given
		client := newClient("admin@gearguard.com")
		syncer := board.NewSynchronizer(client, logger.Discard())
		Expect(syncer.Refresh(ctx)).To(Succeed())
		jam := find(syncer.Snapshot(), "Printer paper jam recurring")
		before, err := client.ViewVersions(ctx)
		Expect(err).NotTo(HaveOccurred())

		// When
		Expect(syncer.Move(ctx, jam.ID, request.StatusInProgress)).To(Succeed())

		// Then
		reqs, err := client.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(find(reqs, jam.Subject).Status).To(Equal(request.StatusInProgress))
		Eventually(func() int64 {
			v, err := client.ViewVersions(ctx)
			if err != nil {
				return -1
			}
			return v["board"]
		}, 2*time.Second).Should(BeNumerically(">", before["board"]))
	})

	It("rolls the card back when the server no longer has it", func() {
		// Given
		client := newClient("admin@gearguard.com")
		syncer := board.NewSynchronizer(client, logger.Discard())
		Expect(syncer.Refresh(ctx)).To(Succeed())
		cleaning := find(syncer.Snapshot(), "Printer monthly cleaning")
		Expect(newClient("admin@gearguard.com").Delete(ctx, cleaning.ID)).To(Succeed())

		// When
		err := syncer.Move(ctx, cleaning.ID, request.StatusScrap)

		// Then
		Expect(internal.IsNotFound(err)).To(BeTrue())
		r, ok := syncer.Find(cleaning.Key())
		Expect(ok).To(BeTrue())
		Expect(r.Status).To(Equal(request.StatusRepaired))
	})

	It("limits a requester to their own requests", func() {
		// Given
		admin := newClient("admin@gearguard.com")
		all, err := admin.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		ups := find(all, "Server room UPS health check")

		priya := newClient("priya.prod@gearguard.com")

		// When
		mine, err := priya.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		_, moveErr := priya.UpdateStatus(ctx, ups.ID, request.StatusRepaired)

		// Then
		subjects := make([]string, 0, len(mine))
		for _, r := range mine {
			subjects = append(subjects, r.Subject)
		}
		Expect(subjects).To(ConsistOf("CNC spindle making noise", "Forklift hydraulic leak"))
		Expect(internal.IsNotFound(moveErr)).To(BeTrue())
	})

	It("lets a requester create a card through the board", func() {
		// Given
		var cnc equipmentDatamodel.Equipment
		Expect(gdb.Where("serial_number = ?", "CNC-PRD-001").First(&cnc).Error).To(Succeed())
		syncer := board.NewSynchronizer(newClient("priya.prod@gearguard.com"), logger.Discard())
		Expect(syncer.Refresh(ctx)).To(Succeed())

		// When
		saved, err := syncer.Create(ctx, request.CreateRequestDTO{
			Subject:       "Coolant leak",
			EquipmentID:   coerce.ID(cnc.ID),
			ScheduledDate: coerce.Time{Time: time.Date(2026, time.March, 12, 8, 0, 0, 0, time.UTC)},
		})

		// Then
		Expect(err).NotTo(HaveOccurred())
		Expect(saved.ID).To(BeNumerically(">", 0))
		Expect(saved.Status).To(Equal(request.StatusNew))
		Expect(saved.Type).To(Equal(request.TypeCorrective))
		Expect(syncer.Board().Column(request.StatusNew).Count).To(Equal(1))
		Expect(syncer.Snapshot()).To(HaveLen(3))
	})

	It("rejects bodies that do not match the API document", func() {
		admin := newClient("admin@gearguard.com")
		body := strings.NewReader(`{"subject":"x","equipment_id":"abc","scheduled_date":"2026-03-12"}`)
		req, err := http.NewRequest(http.MethodPost, server.URL+"/api/v1/requests", body)
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+admin.Token())

		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
	})
})

package equipment_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/gearguard/internal"
	"github.com/frahmantamala/gearguard/internal/auth"
	"github.com/frahmantamala/gearguard/internal/authz"
	"github.com/frahmantamala/gearguard/internal/core/common/coerce"
	"github.com/frahmantamala/gearguard/internal/core/datamodel"
	departmentDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/department"
	requestDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/request"
	teamDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/team"
	userDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/gearguard/internal/core/user"
	"github.com/frahmantamala/gearguard/internal/equipment"
	"github.com/frahmantamala/gearguard/internal/equipment/postgres"
)

func TestEquipment(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Equipment Suite")
}

var _ = Describe("Equipment", func() {
	var (
		db         *gorm.DB
		service    *equipment.Service
		admin      *authz.Identity
		it         *departmentDatamodel.Department
		mechanics  *teamDatamodel.MaintenanceTeam
		validInput func() equipment.CreateEquipmentDTO
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(datamodel.All()...)).To(Succeed())

		owner := &userDatamodel.User{Name: "Ada Admin", Email: "admin@example.com", PasswordHash: "x", Role: "ADMIN"}
		Expect(db.Create(owner).Error).To(Succeed())
		admin = &authz.Identity{ID: owner.ID, Role: coreUser.RoleAdmin}

		it = &departmentDatamodel.Department{Name: "IT"}
		Expect(db.Create(it).Error).To(Succeed())
		mechanics = &teamDatamodel.MaintenanceTeam{Name: "Mechanics"}
		Expect(db.Create(mechanics).Error).To(Succeed())

		validInput = func() equipment.CreateEquipmentDTO {
			return equipment.CreateEquipmentDTO{
				Name:              " Printer ",
				SerialNumber:      "PRN-001",
				Location:          "Office 2",
				PurchaseDate:      coerce.Time{Time: time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)},
				DepartmentID:      coerce.ID(it.ID),
				MaintenanceTeamID: coerce.ID(mechanics.ID),
			}
		}

		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = equipment.NewService(postgres.NewEquipmentRepository(db), lg)
	})

	Describe("Create", func() {
		It("stores equipment owned by the creator with relations resolved", func() {
			e, err := service.Create(context.Background(), admin, validInput())

			Expect(err).NotTo(HaveOccurred())
			Expect(e.Name).To(Equal("Printer"))
			Expect(*e.OwnerID).To(Equal(admin.ID))
			Expect(e.Owner.Name).To(Equal("Ada Admin"))
			Expect(e.Department.Name).To(Equal("IT"))
			Expect(e.MaintenanceTeam.Name).To(Equal("Mechanics"))
			Expect(e.WarrantyEnd).To(BeNil())
		})

		It("rejects a duplicate serial number", func() {
			_, err := service.Create(context.Background(), admin, validInput())
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Create(context.Background(), admin, validInput())

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeDuplicate))
			Expect(appErr.StatusCode).To(Equal(http.StatusConflict))
		})

		It("rejects unknown departments and teams", func() {
			in := validInput()
			in.DepartmentID = 99
			_, err := service.Create(context.Background(), admin, in)
			Expect(err).To(MatchError(internal.ErrDepartmentNotFound))

			in = validInput()
			in.MaintenanceTeamID = 99
			_, err = service.Create(context.Background(), admin, in)
			Expect(err).To(MatchError(internal.ErrTeamNotFound))
		})

		It("requires the mandatory fields", func() {
			in := validInput()
			in.SerialNumber = "  "
			_, err := service.Create(context.Background(), admin, in)
			Expect(internal.IsValidation(err)).To(BeTrue())

			in = validInput()
			in.PurchaseDate = coerce.Time{}
			_, err = service.Create(context.Background(), admin, in)
			Expect(internal.IsValidation(err)).To(BeTrue())
		})

		It("rejects a warranty that ends before purchase", func() {
			in := validInput()
			in.WarrantyEnd = &coerce.Time{Time: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)}
			_, err := service.Create(context.Background(), admin, in)
			Expect(internal.IsValidation(err)).To(BeTrue())
		})

		It("requires an identity", func() {
			_, err := service.Create(context.Background(), nil, validInput())
			Expect(internal.IsAuth(err)).To(BeTrue())
		})
	})

	Describe("Get", func() {
		It("returns NotFound for unknown ids", func() {
			_, err := service.Get(context.Background(), 404)
			Expect(err).To(MatchError(internal.ErrEquipmentNotFound))
		})
	})

	Describe("Detail", func() {
		var (
			printer *equipment.Equipment
			rita    *userDatamodel.User
		)

		file := func(subject string, createdBy int64, at time.Time) {
			Expect(db.Create(&requestDatamodel.MaintenanceRequest{
				Subject:       subject,
				Type:          "CORRECTIVE",
				Status:        "NEW",
				EquipmentID:   printer.ID,
				CreatedByID:   createdBy,
				ScheduledDate: at,
				CreatedAt:     at,
			}).Error).To(Succeed())
		}

		BeforeEach(func() {
			var err error
			printer, err = service.Create(context.Background(), admin, validInput())
			Expect(err).NotTo(HaveOccurred())

			rita = &userDatamodel.User{Name: "Rita Req", Email: "rita@example.com", PasswordHash: "x", Role: "REQUESTER"}
			Expect(db.Create(rita).Error).To(Succeed())

			day := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
			for i := 0; i < 6; i++ {
				file(fmt.Sprintf("admin-%d", i), admin.ID, day.Add(time.Duration(i)*time.Hour))
			}
			file("rita-old", rita.ID, day.Add(-time.Hour))
		})

		It("includes the five newest requests for privileged roles", func() {
			// When
			e, err := service.Detail(context.Background(), admin, printer.ID)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Department.Name).To(Equal("IT"))
			Expect(e.RecentRequests).To(HaveLen(equipment.RecentRequestLimit))
			Expect(e.RecentRequests[0].Subject).To(Equal("admin-5"))
			Expect(e.RecentRequests[4].Subject).To(Equal("admin-1"))
		})

		It("shows a requester only their own requests", func() {
			e, err := service.Detail(context.Background(), &authz.Identity{ID: rita.ID, Role: coreUser.RoleRequester}, printer.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(e.RecentRequests).To(HaveLen(1))
			Expect(e.RecentRequests[0].Subject).To(Equal("rita-old"))
		})

		It("requires an identity", func() {
			_, err := service.Detail(context.Background(), nil, printer.ID)
			Expect(internal.IsAuth(err)).To(BeTrue())
		})
	})

	Describe("Handler", func() {
		var router chi.Router

		BeforeEach(func() {
			h := equipment.NewHandler(service)
			router = chi.NewRouter()
			router.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					u := &auth.User{ID: admin.ID, Role: coreUser.RoleAdmin}
					next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), u)))
				})
			})
			router.Get("/equipment", h.ListEquipment)
			router.Get("/equipment/{id}", h.GetEquipment)
			router.Post("/equipment", h.CreateEquipment)
		})

		It("creates from a form-style payload and lists it", func() {
			// Given
			body, _ := json.Marshal(map[string]interface{}{
				"name":                "Forklift",
				"serial_number":       "FL-9",
				"location":            "Dock",
				"purchase_date":       "2023-04-01",
				"warranty_end":        "2026-04-01",
				"department_id":       "1",
				"maintenance_team_id": 1,
			})

			// When
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/equipment", bytes.NewReader(body)))

			// Then
			Expect(rec.Code).To(Equal(http.StatusCreated))
			var created equipment.Equipment
			Expect(json.Unmarshal(rec.Body.Bytes(), &created)).To(Succeed())
			Expect(created.UnderWarranty(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))).To(BeTrue())

			rec = httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/equipment", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(`"serial_number":"FL-9"`))
		})

		It("maps a non-numeric id to 400", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/equipment/abc", nil))
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("maps a missing id to 404", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/equipment/77", nil))
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})
})

package department_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/gearguard/internal/auth"
	"github.com/frahmantamala/gearguard/internal/core/datamodel"
	departmentDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/department"
	equipmentDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/equipment"
	coreUser "github.com/frahmantamala/gearguard/internal/core/user"
	"github.com/frahmantamala/gearguard/internal/department"
	departmentPostgres "github.com/frahmantamala/gearguard/internal/department/postgres"
)

var _ = Describe("Department Handler Integration", func() {
	var handler *department.Handler

	withUser := func(r *http.Request, role coreUser.Role) *http.Request {
		return r.WithContext(auth.ContextWithUser(r.Context(), &auth.User{ID: 1, Role: role}))
	}

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(datamodel.All()...)).To(Succeed())

		production := &departmentDatamodel.Department{Name: "Production", Description: "Shop floor"}
		it := &departmentDatamodel.Department{Name: "IT", Description: "Computers"}
		Expect(db.Create(production).Error).To(Succeed())
		Expect(db.Create(it).Error).To(Succeed())
		Expect(db.Create(&equipmentDatamodel.Equipment{
			Name: "CNC Machine", SerialNumber: "CNC-1", Location: "Floor A",
			PurchaseDate: time.Now(), DepartmentID: &production.ID,
		}).Error).To(Succeed())

		service := department.NewService(departmentPostgres.NewDepartmentRepository(db), slogger)
		handler = department.NewHandler(service)
	})

	It("should handle GET /departments for an admin", func() {
		w := httptest.NewRecorder()
		handler.GetDepartments(w, withUser(httptest.NewRequest(http.MethodGet, "/departments", nil), coreUser.RoleAdmin))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

		var response struct {
			Departments []department.Department `json:"departments"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
		Expect(response.Departments).To(HaveLen(2))
		Expect(response.Departments[0].Name).To(Equal("IT"))
		Expect(response.Departments[1].EquipmentCount).To(Equal(1))
	})

	It("should forbid GET /departments for a technician", func() {
		w := httptest.NewRecorder()
		handler.GetDepartments(w, withUser(httptest.NewRequest(http.MethodGet, "/departments", nil), coreUser.RoleTechnician))

		Expect(w.Code).To(Equal(http.StatusForbidden))
	})

	It("should serve options to any authenticated user", func() {
		w := httptest.NewRecorder()
		handler.GetDepartmentOptions(w, withUser(httptest.NewRequest(http.MethodGet, "/departments/options", nil), coreUser.RoleRequester))

		Expect(w.Code).To(Equal(http.StatusOK))
		var response struct {
			Departments []department.Option `json:"departments"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
		Expect(response.Departments).To(ConsistOf(
			department.Option{ID: 2, Name: "IT"},
			department.Option{ID: 1, Name: "Production"},
		))
	})

	It("should reject anonymous option lookups", func() {
		w := httptest.NewRecorder()
		handler.GetDepartmentOptions(w, httptest.NewRequest(http.MethodGet, "/departments/options", nil))

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})
})

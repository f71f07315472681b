package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	departmentDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/department"
	equipmentDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/equipment"
	requestDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/request"
	teamDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/team"
	userDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/gearguard/internal/core/user"
)

// SeedPassword is the password of every seeded user.
const SeedPassword = "password123"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gdb, err := initGorm(db)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		summary, err := Seed(cmd.Context(), gdb, SeedOptions{
			Clear:      clearData,
			BCryptCost: cfg.Security.BCryptCost,
		})
		if err != nil {
			log.Fatalf("seed failed: %v", err)
		}
		fmt.Printf("Seeded %d users, %d departments, %d teams, %d equipment, %d requests\n",
			summary.Users, summary.Departments, summary.Teams, summary.Equipment, summary.Requests)
		fmt.Println("Log in as admin@gearguard.com with password", SeedPassword)
	},
}

type SeedOptions struct {
	// Clear empties every table first.
	Clear      bool
	BCryptCost int
	// Now anchors scheduled and purchase dates. Defaults to time.Now().
	Now time.Time
}

type SeedSummary struct {
	Users, Departments, Teams, Equipment, Requests int
}

// Seed loads the demo data set in one transaction. Rows that already exist
// (matched on their unique key) are left alone.
func Seed(ctx context.Context, db *gorm.DB, opts SeedOptions) (*SeedSummary, error) {
	if opts.BCryptCost == 0 {
		opts.BCryptCost = bcrypt.DefaultCost
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), opts.BCryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	summary := &SeedSummary{}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if opts.Clear {
			if err := clearTables(tx); err != nil {
				return err
			}
		}
		s := seeder{tx: tx, hash: string(hash), now: opts.Now, summary: summary}
		return s.run()
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func clearTables(tx *gorm.DB) error {
	all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []interface{}{
		&requestDatamodel.MaintenanceRequest{},
		&equipmentDatamodel.Equipment{},
		&teamDatamodel.TeamMember{},
		&teamDatamodel.MaintenanceTeam{},
		&departmentDatamodel.Department{},
		&userDatamodel.User{},
	} {
		if err := all.Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

type seeder struct {
	tx      *gorm.DB
	hash    string
	now     time.Time
	summary *SeedSummary
}

func (s seeder) run() error {
	admin, err := s.user("Admin User", "admin@gearguard.com", coreUser.RoleAdmin)
	if err != nil {
		return err
	}
	ravi, err := s.user("Ravi Mechanic", "ravi.mechanic@gearguard.com", coreUser.RoleTechnician)
	if err != nil {
		return err
	}
	aarav, err := s.user("Aarav IT", "aarav.it@gearguard.com", coreUser.RoleTechnician)
	if err != nil {
		return err
	}
	priya, err := s.user("Priya Production", "priya.prod@gearguard.com", coreUser.RoleRequester)
	if err != nil {
		return err
	}
	karan, err := s.user("Karan Office", "karan.office@gearguard.com", coreUser.RoleRequester)
	if err != nil {
		return err
	}

	production, err := s.department("Production")
	if err != nil {
		return err
	}
	it, err := s.department("IT")
	if err != nil {
		return err
	}
	logistics, err := s.department("Logistics")
	if err != nil {
		return err
	}

	mechanics, err := s.team("Mechanics", ravi)
	if err != nil {
		return err
	}
	support, err := s.team("IT Support", aarav)
	if err != nil {
		return err
	}

	year := s.now.Year()
	at := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	cnc, err := s.equipment("CNC Machine 01", "CNC-PRD-001", "Production Floor A",
		at(year-2, time.June, 10), at(year+1, time.June, 10), production, mechanics, priya)
	if err != nil {
		return err
	}
	forklift, err := s.equipment("Forklift 01", "FL-LOG-001", "Warehouse Bay 3",
		at(year-3, time.March, 5), at(year, time.March, 5), logistics, mechanics, priya)
	if err != nil {
		return err
	}
	printer, err := s.equipment("Printer 01", "PRN-OFC-001", "Office 2nd Floor",
		at(year-1, time.September, 15), at(year+1, time.September, 15), it, support, karan)
	if err != nil {
		return err
	}
	laptop, err := s.equipment("Laptop - Design", "LTP-IT-023", "Design Studio",
		at(year-1, time.February, 20), at(year+2, time.February, 20), it, support, karan)
	if err != nil {
		return err
	}
	server, err := s.equipment("Main Server Rack", "SRV-IT-001", "Server Room",
		at(year-4, time.April, 1), at(year+1, time.April, 1), it, support, admin)
	if err != nil {
		return err
	}

	yesterday := s.now.AddDate(0, 0, -1)
	lastWeek := s.now.AddDate(0, 0, -7)
	nextWeek := s.now.AddDate(0, 0, 7)
	nextMonth := s.now.AddDate(0, 1, 0)

	requests := []seedRequest{
		// breakdowns reported by requesters
		{"CNC spindle making noise", "Operator reported unusual vibration and noise from spindle.", "CORRECTIVE", "IN_PROGRESS", cnc, ravi, priya, mechanics, yesterday, 3},
		{"Forklift hydraulic leak", "Oil leak under the rear axle area.", "CORRECTIVE", "SCRAP", forklift, ravi, priya, mechanics, lastWeek, 5},
		{"Printer paper jam recurring", "Frequent paper jams every ~20 pages.", "CORRECTIVE", "NEW", printer, aarav, karan, support, s.now, 1},
		{"Laptop overheating during design work", "Fan running at high speed, system throttling.", "CORRECTIVE", "IN_PROGRESS", laptop, aarav, karan, support, nextWeek, 2},
		// routine work planned by the admin
		{"Quarterly CNC calibration", "Routine precision calibration for CNC Machine 01.", "PREVENTIVE", "NEW", cnc, ravi, admin, mechanics, nextWeek, 4},
		{"Forklift annual safety inspection", "Check brakes, hydraulics, and safety signage.", "PREVENTIVE", "NEW", forklift, ravi, admin, mechanics, nextMonth, 6},
		{"Server room UPS health check", "Battery test and firmware update.", "PREVENTIVE", "NEW", server, aarav, admin, support, nextWeek, 2},
		{"Printer monthly cleaning", "Clean rollers and run diagnostic.", "PREVENTIVE", "REPAIRED", printer, aarav, admin, support, nextMonth, 1},
	}
	for _, r := range requests {
		if err := s.request(r); err != nil {
			return err
		}
	}
	return nil
}

func (s seeder) user(name, email string, role coreUser.Role) (int64, error) {
	image := "https://api.dicebear.com/7.x/initials/svg?seed=" + name
	u := userDatamodel.User{
		Name:         name,
		Email:        email,
		PasswordHash: s.hash,
		Role:         string(role),
		Image:        &image,
		IsActive:     true,
	}
	if err := s.tx.Where(userDatamodel.User{Email: email}).FirstOrCreate(&u).Error; err != nil {
		return 0, fmt.Errorf("seed user %s: %w", email, err)
	}
	s.summary.Users++
	return u.ID, nil
}

func (s seeder) department(name string) (int64, error) {
	d := departmentDatamodel.Department{Name: name}
	if err := s.tx.Where(departmentDatamodel.Department{Name: name}).FirstOrCreate(&d).Error; err != nil {
		return 0, fmt.Errorf("seed department %s: %w", name, err)
	}
	s.summary.Departments++
	return d.ID, nil
}

func (s seeder) team(name string, technicians ...int64) (int64, error) {
	t := teamDatamodel.MaintenanceTeam{Name: name}
	if err := s.tx.Where(teamDatamodel.MaintenanceTeam{Name: name}).FirstOrCreate(&t).Error; err != nil {
		return 0, fmt.Errorf("seed team %s: %w", name, err)
	}
	for _, userID := range technicians {
		member := teamDatamodel.TeamMember{TeamID: t.ID, UserID: userID}
		if err := s.tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&member).Error; err != nil {
			return 0, fmt.Errorf("seed team %s member %d: %w", name, userID, err)
		}
	}
	s.summary.Teams++
	return t.ID, nil
}

func (s seeder) equipment(name, serial, location string, purchased, warrantyEnd time.Time, departmentID, teamID, ownerID int64) (int64, error) {
	e := equipmentDatamodel.Equipment{
		Name:              name,
		SerialNumber:      serial,
		Location:          location,
		PurchaseDate:      purchased,
		WarrantyEnd:       &warrantyEnd,
		DepartmentID:      &departmentID,
		MaintenanceTeamID: &teamID,
		OwnerID:           &ownerID,
	}
	err := s.tx.Omit(clause.Associations).
		Where(equipmentDatamodel.Equipment{SerialNumber: serial}).
		FirstOrCreate(&e).Error
	if err != nil {
		return 0, fmt.Errorf("seed equipment %s: %w", serial, err)
	}
	s.summary.Equipment++
	return e.ID, nil
}

type seedRequest struct {
	subject, description, kind, status string
	equipmentID, technicianID          int64
	createdByID, teamID                int64
	scheduled                          time.Time
	hours                              float64
}

func (s seeder) request(r seedRequest) error {
	var existing int64
	err := s.tx.Model(&requestDatamodel.MaintenanceRequest{}).
		Where("subject = ? AND equipment_id = ?", r.subject, r.equipmentID).
		Count(&existing).Error
	if err != nil {
		return fmt.Errorf("look up request %q: %w", r.subject, err)
	}
	if existing > 0 {
		return nil
	}

	description := r.description
	hours := r.hours
	m := requestDatamodel.MaintenanceRequest{
		Subject:              r.subject,
		Description:          &description,
		Type:                 r.kind,
		Status:               r.status,
		EquipmentID:          r.equipmentID,
		AssignedTechnicianID: &r.technicianID,
		MaintenanceTeamID:    &r.teamID,
		CreatedByID:          r.createdByID,
		ScheduledDate:        r.scheduled,
		DurationHours:        &hours,
	}
	if err := s.tx.Omit(clause.Associations).Create(&m).Error; err != nil {
		return fmt.Errorf("seed request %q: %w", r.subject, err)
	}
	s.summary.Requests++
	return nil
}

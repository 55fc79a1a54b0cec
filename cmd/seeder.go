package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with the admin user, roles and menus",
	Long:  `Seed the admin account, the default roles, the administration menus and the admin grants. Safe to run repeatedly.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			for _, table := range []string{"nav_roles_menus", "sec_users_roles", "nav_menus", "sec_roles", "sec_users"} {
				if err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		adminID := seedAdminUser(db)
		roleIDs := seedRoles(db)
		menuIDs := seedMenus(db)
		seedAdminGrants(db, adminID, roleIDs["admins"], menuIDs)

		fmt.Println("Seeding complete")
	},
}

func seedAdminUser(db *gorm.DB) int64 {
	adminUserName := "admin"

	var adminID int64
	row := db.Raw("SELECT user_id FROM sec_users WHERE user_name = ?", adminUserName).Row()
	if err := row.Scan(&adminID); err == nil {
		fmt.Println("admin user already exists")
		return adminID
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("ChangeMe!admin1"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash admin password: %v", err)
	}

	err = db.Exec(`INSERT INTO sec_users
		(user_name, first_name, last_name, email, password_hash, is_confirmed, confirmed_at, is_active, is_deleted, has_ever_logged_in, created_datetime)
		VALUES (?, ?, ?, ?, ?, true, now(), true, false, false, now())`,
		adminUserName, "System", "Administrator", "admin@localhost", string(hash)).Error
	if err != nil {
		log.Fatalf("failed to insert admin user: %v", err)
	}
	fmt.Println("Seeded admin user:", adminUserName)

	if err := db.Raw("SELECT user_id FROM sec_users WHERE user_name = ?", adminUserName).Row().Scan(&adminID); err != nil {
		log.Fatalf("failed to look up admin user id: %v", err)
	}
	return adminID
}

func seedRoles(db *gorm.DB) map[string]int64 {
	roles := []struct {
		Name      string
		Desc      string
		IsDefault bool
	}{
		{"admins", "Full administrator access", false},
		{"users", "Standard dashboard access", false},
		{"everyone", "Implicit baseline role", true},
	}

	ids := make(map[string]int64, len(roles))
	for _, r := range roles {
		var id int64
		row := db.Raw("SELECT role_id FROM sec_roles WHERE role_name = ?", r.Name).Row()
		if err := row.Scan(&id); err != nil {
			err := db.Exec(`INSERT INTO sec_roles (role_name, role_description, is_active, is_default, created_datetime)
				VALUES (?, ?, true, ?, now())`, r.Name, r.Desc, r.IsDefault).Error
			if err != nil {
				log.Fatalf("failed to insert role %s: %v", r.Name, err)
			}
			fmt.Println("Seeded role:", r.Name)
			if err := db.Raw("SELECT role_id FROM sec_roles WHERE role_name = ?", r.Name).Row().Scan(&id); err != nil {
				log.Fatalf("failed to look up role id for %s: %v", r.Name, err)
			}
		}
		ids[r.Name] = id
	}
	return ids
}

func seedMenus(db *gorm.DB) []int64 {
	menus := []struct {
		URL  string
		Name string
		Text string
	}{
		{"/dashboard", "dashboard", "Dashboard"},
		{"/users", "users", "User Administration"},
		{"/users/roles", "users_roles", "Roles and Assignments"},
		{"/nav/menus", "nav_menus", "Menu Catalog"},
		{"/nav/menus_management", "nav_menus_management", "Menu Access Management"},
	}

	ids := make([]int64, 0, len(menus))
	for _, m := range menus {
		var id int64
		row := db.Raw("SELECT menu_id FROM nav_menus WHERE menu_url = ?", m.URL).Row()
		if err := row.Scan(&id); err != nil {
			err := db.Exec(`INSERT INTO nav_menus (menu_url, menu_name, menu_text, is_active, created_datetime)
				VALUES (?, ?, ?, true, now())`, m.URL, m.Name, m.Text).Error
			if err != nil {
				log.Fatalf("failed to insert menu %s: %v", m.URL, err)
			}
			fmt.Println("Seeded menu:", m.URL)
			if err := db.Raw("SELECT menu_id FROM nav_menus WHERE menu_url = ?", m.URL).Row().Scan(&id); err != nil {
				log.Fatalf("failed to look up menu id for %s: %v", m.URL, err)
			}
		}
		ids = append(ids, id)
	}
	return ids
}

func seedAdminGrants(db *gorm.DB, adminID, adminRoleID int64, menuIDs []int64) {
	var exists int
	row := db.Raw("SELECT 1 FROM sec_users_roles WHERE user_id = ? AND role_id = ? AND is_active = true", adminID, adminRoleID).Row()
	if err := row.Scan(&exists); err != nil {
		err := db.Exec(`INSERT INTO sec_users_roles (user_id, role_id, is_active, created_datetime)
			VALUES (?, ?, true, now())`, adminID, adminRoleID).Error
		if err != nil {
			log.Fatalf("failed to assign admin role: %v", err)
		}
		fmt.Println("Assigned admins role to admin user")
	}

	for _, menuID := range menuIDs {
		row := db.Raw("SELECT 1 FROM nav_roles_menus WHERE role_id = ? AND menu_id = ? AND is_active = true", adminRoleID, menuID).Row()
		if err := row.Scan(&exists); err == nil {
			continue
		}

		err := db.Exec(`INSERT INTO nav_roles_menus (role_id, menu_id, can_view, can_create, can_edit, can_delete, is_active, created_datetime)
			VALUES (?, ?, true, true, true, true, true, now())`, adminRoleID, menuID).Error
		if err != nil {
			log.Fatalf("failed to grant menu %d to admins: %v", menuID, err)
		}
	}
	fmt.Println("Granted all menus to admins role")
}

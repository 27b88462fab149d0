package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/todopanel/todo-panel/config"
	"github.com/todopanel/todo-panel/database"
	"github.com/todopanel/todo-panel/database/model"
	"github.com/todopanel/todo-panel/logger"
	"github.com/todopanel/todo-panel/web"
	"github.com/todopanel/todo-panel/web/entity"
	"github.com/todopanel/todo-panel/web/service"
)

func loadConfig() *config.Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Println("load .env:", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

func openDB(cfg *config.Config) *gorm.DB {
	db, err := database.InitDB(&cfg.Database, cfg.Debug)
	if err != nil {
		log.Fatal(err)
	}
	return db
}

func runWebServer() {
	cfg := loadConfig()
	log.Printf("%v %v", config.GetName(), config.GetVersion())

	level, err := logger.ParseLevel(string(cfg.LogLevel))
	if err != nil {
		log.Fatal("unknown log level:", cfg.LogLevel)
	}
	logger.InitLogger(level, cfg.LogFolder)
	defer logger.CloseLogger()

	db := openDB(cfg)
	defer func() {
		if err := database.CloseDB(db); err != nil {
			logger.Warning("close database err:", err)
		}
	}()

	seeded, err := database.SeedAdmin(db, cfg.Admin)
	if err != nil {
		logger.Error("seed admin:", err)
		return
	}
	if seeded {
		logger.Noticef("created administrator %s from environment", cfg.Admin.Username)
	}

	server := web.NewServer(cfg, db)
	if err := server.Start(); err != nil {
		logger.Error("start server:", err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	// Trap shutdown signals
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			server = web.NewServer(cfg, db)
			if err := server.Start(); err != nil {
				logger.Error("restart server:", err)
				return
			}
		default:
			logger.Info("shutting down on", sig)
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			return
		}
	}
}

func migrateDb() {
	cfg := loadConfig()
	fmt.Println("Start migrating database...")
	db := openDB(cfg)
	defer database.CloseDB(db)
	fmt.Println("Migration done!")
}

func createAdmin(email, username, password string) error {
	cfg := loadConfig()
	db := openDB(cfg)
	defer database.CloseDB(db)

	admins := service.NewUserAdminService(db, service.NewUserService(db), service.NewAuditLogService(db))
	user, err := admins.CreateUser(context.Background(), entity.RegisterRequest{
		Email:    email,
		Username: username,
		Password: password,
	}, model.RoleAdmin)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	fmt.Printf("created administrator %s (id %d)\n", user.Username, user.Id)
	return nil
}

func setRole(login, role string) error {
	cfg := loadConfig()
	db := openDB(cfg)
	defer database.CloseDB(db)

	admins := service.NewUserAdminService(db, service.NewUserService(db), service.NewAuditLogService(db))
	user, err := admins.ForceRole(context.Background(), login, model.Role(role))
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	fmt.Printf("%s is now %s\n", user.Username, user.Role)
	return nil
}

func listUsers() error {
	cfg := loadConfig()
	db := openDB(cfg)
	defer database.CloseDB(db)

	admins := service.NewUserAdminService(db, service.NewUserService(db), service.NewAuditLogService(db))
	users, err := admins.ListUsers(context.Background())
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func main() {
	var rootCmd = &cobra.Command{
		Use:     config.GetName(),
		Short:   "Multi-user todo REST API",
		Version: config.GetVersion(),

		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	var migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Run: func(cmd *cobra.Command, args []string) {
			migrateDb()
		},
	}

	var adminCmd = &cobra.Command{
		Use:   "admin",
		Short: "Manage administrators",
	}

	var createCmd = &cobra.Command{
		Use:   "create",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			return createAdmin(email, username, password)
		},
	}
	createCmd.Flags().String("email", "", "administrator email")
	createCmd.Flags().String("username", "", "administrator username")
	createCmd.Flags().String("password", "", "administrator password")
	_ = createCmd.MarkFlagRequired("email")
	_ = createCmd.MarkFlagRequired("username")
	_ = createCmd.MarkFlagRequired("password")

	var setRoleCmd = &cobra.Command{
		Use:   "set-role",
		Short: "Set the role of a user, bypassing the API self-modification rule",
		RunE: func(cmd *cobra.Command, args []string) error {
			login, _ := cmd.Flags().GetString("login")
			role, _ := cmd.Flags().GetString("role")
			return setRole(login, role)
		},
	}
	setRoleCmd.Flags().String("login", "", "email or username of the user")
	setRoleCmd.Flags().String("role", "", "new role: user or admin")
	_ = setRoleCmd.MarkFlagRequired("login")
	_ = setRoleCmd.MarkFlagRequired("role")

	adminCmd.AddCommand(createCmd, setRoleCmd)

	var userCmd = &cobra.Command{
		Use:   "user",
		Short: "Inspect user accounts",
	}

	var listCmd = &cobra.Command{
		Use:   "list",
		Short: "Print all users as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listUsers()
		},
	}
	userCmd.AddCommand(listCmd)

	rootCmd.AddCommand(runCmd, migrateCmd, adminCmd, userCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/presensia/presensi-backend-go/internal/config"
	"github.com/presensia/presensi-backend-go/internal/domain/attendance"
	"github.com/presensia/presensi-backend-go/internal/domain/geofence"
	appHTTP "github.com/presensia/presensi-backend-go/internal/handler/http"
	"github.com/presensia/presensi-backend-go/internal/pkg/cron"
	"github.com/presensia/presensi-backend-go/internal/pkg/database"
	"github.com/presensia/presensi-backend-go/internal/pkg/jwt"
	"github.com/presensia/presensi-backend-go/internal/pkg/sheets"
	"github.com/presensia/presensi-backend-go/internal/pkg/sse"
	"github.com/presensia/presensi-backend-go/internal/pkg/storage"
	"github.com/presensia/presensi-backend-go/internal/repository/postgresql"
	attendanceService "github.com/presensia/presensi-backend-go/internal/service/attendance"
	serviceAuth "github.com/presensia/presensi-backend-go/internal/service/auth"
	"github.com/presensia/presensi-backend-go/internal/service/file"
	"github.com/presensia/presensi-backend-go/internal/service/mirror"
	userService "github.com/presensia/presensi-backend-go/internal/service/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	userRepo := postgresql.NewUserRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	JWTRepository := postgresql.NewJWTRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration, cfg.JWT.RefreshExpiration)

	var fileStorage storage.FileStorage
	switch cfg.Storage.Type {
	case "local":
		fileStorage, err = storage.NewLocalStorage(
			cfg.Storage.BasePath,
			cfg.Storage.BaseURL,
		)
		if err != nil {
			log.Fatal("Failed to initialize local storage:", err)
		}
	default:
		log.Fatal("Unsupported storage type: ", cfg.Storage.Type)
	}
	fileService := file.NewFileService(fileStorage)

	// Day boundaries and cutoffs run in the office timezone. The value is
	// validated at config load.
	location, err := time.LoadLocation(cfg.Attendance.Timezone)
	if err != nil {
		log.Fatal("Failed to load attendance timezone:", err)
	}
	policy := attendance.NewPolicy(location)
	office := geofence.Office{
		Coordinate: geofence.Coordinate{
			Latitude:  cfg.Office.Latitude,
			Longitude: cfg.Office.Longitude,
		},
		RadiusMeters: cfg.Office.RadiusMeters,
	}

	// The sheets mirror is optional; without a spreadsheet ID records stay
	// in PostgreSQL only.
	var sheetsClient *sheets.Client
	if cfg.Sheets.SpreadsheetID != "" {
		sheetsClient, err = sheets.NewClient(ctx, cfg.Sheets.CredentialsFile, cfg.Sheets.SpreadsheetID, cfg.Sheets.SheetRange)
		if err != nil {
			log.Fatal("Failed to initialize sheets client:", err)
		}
	}
	mirrorService := mirror.NewService(sheetsClient, location)

	hub := sse.NewHub()

	authService := serviceAuth.NewAuthService(db, userRepo, JWTService, JWTRepository)
	attendanceSvc := attendanceService.NewAttendanceService(
		attendanceRepo,
		userRepo,
		office,
		policy,
		fileService,
		hub,
		mirrorService,
	)
	userSvc := userService.NewUserService(userRepo, fileService)

	authHandler := appHTTP.NewAuthHandler(JWTService, authService)
	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc, JWTService, hub)
	userHandler := appHTTP.NewUserHandler(userSvc)

	scheduler := cron.NewScheduler()
	cron.NewAttendanceJobs(attendanceRepo, userRepo, policy, hub).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			AllowedOrigins: []string{cfg.App.FrontendURL},
			UploadDir:      cfg.Storage.BasePath,
		},
		JWTService,
		authHandler,
		attendanceHandler,
		userHandler,
	)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}

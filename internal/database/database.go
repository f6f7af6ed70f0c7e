package database

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/indureport/indureportgo/internal/config"
)

const (
	embeddedDataPath = "./db_data"
	embeddedPort     = 5433
)

// DB wraps gorm.DB and includes a reference to an embedded process if active
type DB struct {
	*gorm.DB
	embedded *embeddedpostgres.EmbeddedPostgres
}

// cleanupStaleEmbeddedPostgres stops a leftover postmaster from a previous
// crash so the embedded engine can claim its data directory again
func cleanupStaleEmbeddedPostgres() {
	pidFile := filepath.Join(embeddedDataPath, "postmaster.pid")

	data, err := os.ReadFile(pidFile)
	if err != nil {
		// no pid file = clean state
		return
	}

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	if !scanner.Scan() {
		return
	}
	pid, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil {
		log.Printf("⚠️  Could not parse PID from postmaster.pid: %v", err)
		return
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		log.Printf("🧹 Cleaning up stale postmaster.pid (PID %d not found)", pid)
		os.Remove(pidFile)
		return
	}

	// On Unix FindProcess always succeeds; signal 0 checks liveness
	if err := process.Signal(syscall.Signal(0)); err != nil {
		log.Printf("🧹 Cleaning up stale postmaster.pid (PID %d not running)", pid)
		os.Remove(pidFile)
		return
	}

	log.Printf("⚠️  Found orphaned PostgreSQL process (PID %d), attempting to stop...", pid)
	if err := process.Signal(syscall.SIGTERM); err != nil {
		log.Printf("⚠️  Could not send SIGTERM to PID %d: %v", pid, err)
	}
	for i := 0; i < 10; i++ {
		time.Sleep(500 * time.Millisecond)
		if err := process.Signal(syscall.Signal(0)); err != nil {
			log.Printf("✅ Orphaned PostgreSQL process stopped")
			os.Remove(pidFile)
			return
		}
	}
	log.Printf("⚠️  Process did not stop gracefully, sending SIGKILL...")
	process.Kill()
	time.Sleep(500 * time.Millisecond)
	os.Remove(pidFile)
}

// isPortInUse checks if a port is already in use
func isPortInUse(port int) bool {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Connect establishes a connection to a PostgreSQL database. When the host
// is localhost and no password is configured, a zero-config embedded engine
// is started instead of requiring an external server.
func Connect(cfg config.DatabaseConfig) (*DB, error) {
	var embedded *embeddedpostgres.EmbeddedPostgres

	isEmbedded := cfg.Host == "localhost" && cfg.Password == ""

	password := cfg.Password
	if isEmbedded {
		log.Println("📦 Mode: [Embedded PostgreSQL] - Initializing internal database...")

		cleanupStaleEmbeddedPostgres()

		if isPortInUse(embeddedPort) {
			log.Printf("⚠️  Port %d still in use, waiting for release...", embeddedPort)
			for i := 0; i < 6; i++ {
				time.Sleep(500 * time.Millisecond)
				if !isPortInUse(embeddedPort) {
					break
				}
			}
			if isPortInUse(embeddedPort) {
				return nil, fmt.Errorf("port %d is still in use by another process", embeddedPort)
			}
		}

		embeddedCfg := embeddedpostgres.DefaultConfig().
			DataPath(embeddedDataPath).
			Port(uint32(embeddedPort)).
			Database(cfg.Database).
			Username(cfg.Username).
			Password("postgres")

		embedded = embeddedpostgres.NewDatabase(embeddedCfg)
		if err := embedded.Start(); err != nil {
			return nil, fmt.Errorf("failed to start embedded database: %w", err)
		}

		cfg.Port = strconv.Itoa(embeddedPort)
		password = "postgres"
		log.Printf("✅ Embedded PostgreSQL process started on port %d", embeddedPort)
	} else {
		log.Printf("🌐 Mode: [External PostgreSQL] - Connecting to %s:%s\n", cfg.Host, cfg.Port)
	}

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, password, cfg.Database,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		if embedded != nil {
			_ = embedded.Stop()
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.Println("✅ Database connection established")

	return &DB{
		DB:       db,
		embedded: embedded,
	}, nil
}

// Close ensures the database connection and embedded process are shut down
func (db *DB) Close() error {
	if db.embedded != nil {
		log.Println("🛑 Stopping Embedded PostgreSQL process...")
		_ = db.embedded.Stop()
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate triggers GORM schema synchronization
func (db *DB) AutoMigrate(models ...interface{}) error {
	return db.DB.AutoMigrate(models...)
}
